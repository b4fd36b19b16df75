package fs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/request"
)

const extension = ".json"

// Service persists request snapshots as JSON files under a base URL. Any afs
// supported location works (local file system, mem://, cloud storage).
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ request.Service = (*Service)(nil)

// Save writes a request snapshot.
func (s *Service) Save(ctx context.Context, r *model.Request) error {
	data, err := request.Encode(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.requestURL(r.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save request to %s: %w", location, err)
	}
	return nil
}

// Load reads a request snapshot.
func (s *Service) Load(ctx context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.requestURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check request %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("request %s: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read request %s: %w", id, err)
	}
	return request.Decode(data)
}

// Delete removes a request snapshot; deleting a missing request is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.requestURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check request %s: %w", id, err)
	}
	if !exists {
		return nil
	}
	if err = s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete request %s: %w", id, err)
	}
	return nil
}

// List reads every snapshot under the base URL and returns the matching ones.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var ret []*model.Request
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), extension) {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}
		r, err := request.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", object.URL(), err)
		}
		if !request.Matches(r, parameters) {
			continue
		}
		ret = append(ret, r)
	}
	return ret, nil
}

func (s *Service) requestURL(id string) string {
	return url.Join(s.baseURL, id+extension)
}

// New creates a file-backed request store rooted at baseURL, creating the
// location when missing.
func New(ctx context.Context, baseURL string, fs afs.Service) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", baseURL, err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
