package memory

import (
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/dao/store"
)

// Service is an in-memory request store. Snapshots are deep-copied on the
// way in and out.
type Service struct {
	*store.MemoryStore[string, model.Request]
}

// New creates an in-memory request store.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, model.Request](request.Key,
			store.WithCloner[string, model.Request]((*model.Request).Clone),
			store.WithFilter[string, model.Request](request.Matches),
		),
	}
}

var _ request.Service = (*Service)(nil)
