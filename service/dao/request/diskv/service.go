// Package diskv implements a request store on top of the diskv on-disk
// key-value store.
package diskv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/request"
)

// Service keeps one key per request id holding the JSON snapshot.
type Service struct {
	diskv *diskv.Diskv
}

var _ request.Service = (*Service)(nil)

// New creates a diskv-backed store rooted at path.
func New(path string) *Service {
	flatTransform := func(s string) []string { return []string{} }
	return &Service{diskv: diskv.New(diskv.Options{
		BasePath:     filepath.Join(path, "approval", "request"),
		Transform:    flatTransform,
		CacheSizeMax: 1024 * 1024,
	})}
}

func (s *Service) Save(_ context.Context, r *model.Request) error {
	data, err := request.Encode(r)
	if err != nil {
		return err
	}
	if err = s.diskv.Write(r.ID, data); err != nil {
		return fmt.Errorf("writing request %s: %w", r.ID, err)
	}
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if !s.diskv.Has(id) {
		return nil, fmt.Errorf("request %s: %w", id, dao.ErrNotFound)
	}
	data, err := s.diskv.Read(id)
	if err != nil {
		return nil, fmt.Errorf("reading request %s: %w", id, err)
	}
	return request.Decode(data)
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	if !s.diskv.Has(id) {
		return nil
	}
	if err := s.diskv.Erase(id); err != nil {
		return fmt.Errorf("erasing request %s: %w", id, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Request, error) {
	cancel := make(chan struct{})
	defer close(cancel)
	var ret []*model.Request
	for id := range s.diskv.Keys(cancel) {
		r, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if request.Matches(r, parameters) {
			ret = append(ret, r)
		}
	}
	return ret, nil
}
