package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/criteria"
	"github.com/viant/signoff/service/dao/request"
)

// Service is a request store backed by Redis.
// It uses a simple key structure:
//
//	<prefix>req:<id>                => JSON request snapshot
//	<prefix>idx:all                 => SET of all request IDs
//	<prefix>idx:status:<status>     => SET of request IDs for a given status
//
// Status filtering uses the indexes; other filters are applied after
// decoding.
type Service struct {
	client *redis.Client
	prefix string
}

var _ request.Service = (*Service)(nil)

// New creates a Redis request store. prefix is optional (default "signoff:").
func New(client *redis.Client, prefix string) *Service {
	if prefix == "" {
		prefix = "signoff:"
	}
	return &Service{client: client, prefix: prefix}
}

func (s *Service) keyRequest(id string) string { return s.prefix + "req:" + id }

func (s *Service) keyAll() string { return s.prefix + "idx:all" }

func (s *Service) keyStatus(status string) string { return s.prefix + "idx:status:" + status }

func (s *Service) Save(ctx context.Context, r *model.Request) error {
	data, err := request.Encode(r)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keyRequest(r.ID), data, 0)
	pipe.SAdd(ctx, s.keyAll(), r.ID)
	for _, status := range model.RequestStatuses {
		if status != r.Status {
			pipe.SRem(ctx, s.keyStatus(string(status)), r.ID)
		}
	}
	pipe.SAdd(ctx, s.keyStatus(string(r.Status)), r.ID)
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save request %s: %w", r.ID, err)
	}
	return nil
}

func (s *Service) Load(ctx context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := s.client.Get(ctx, s.keyRequest(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("request %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", id, err)
	}
	return request.Decode(data)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keyRequest(id))
	pipe.SRem(ctx, s.keyAll(), id)
	for _, status := range model.RequestStatuses {
		pipe.SRem(ctx, s.keyStatus(string(status)), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete request %s: %w", id, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Request, error) {
	ids, err := s.candidateIDs(ctx, parameters)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyRequest(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var ret []*model.Request
	for _, value := range values {
		text, ok := value.(string)
		if !ok {
			continue
		}
		r, err := request.Decode([]byte(text))
		if err != nil {
			return nil, err
		}
		if request.Matches(r, parameters) {
			ret = append(ret, r)
		}
	}
	return ret, nil
}

func (s *Service) candidateIDs(ctx context.Context, parameters []*dao.Parameter) ([]string, error) {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != request.FieldStatus {
			continue
		}
		var keys []string
		for _, status := range criteria.Values(parameter) {
			keys = append(keys, s.keyStatus(status))
		}
		if len(keys) == 0 {
			break
		}
		ids, err := s.client.SUnion(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read status index: %w", err)
		}
		return ids, nil
	}
	ids, err := s.client.SMembers(ctx, s.keyAll()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read request index: %w", err)
	}
	return ids, nil
}
