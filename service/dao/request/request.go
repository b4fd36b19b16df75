// Package request holds what every approval request store shares: the
// snapshot codec, filter field names and the List matcher.
package request

import (
	"encoding/json"
	"fmt"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/criteria"
)

// Filter field names accepted by List.
const (
	FieldStatus    = "Status"
	FieldRequester = "Requester"
	FieldType      = "Type"
	FieldPriority  = "Priority"
)

// Service is the request snapshot store contract.
type Service = dao.Service[string, model.Request]

// Key selects the request id.
func Key(r *model.Request) string { return r.ID }

// Fields exposes the filterable attributes of r.
func Fields(r *model.Request) criteria.Fields {
	return func(name string) (string, bool) {
		switch name {
		case FieldStatus:
			return string(r.Status), true
		case FieldRequester:
			return r.Requester, true
		case FieldType:
			return string(r.Type), true
		case FieldPriority:
			return string(r.Priority), true
		}
		return "", false
	}
}

// Matches reports whether r satisfies every parameter.
func Matches(r *model.Request, parameters []*dao.Parameter) bool {
	return criteria.Match(Fields(r), parameters)
}

// Encode serialises a request snapshot.
func Encode(r *model.Request) ([]byte, error) {
	if r == nil {
		return nil, dao.ErrNilEntity
	}
	if r.ID == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request %s: %w", r.ID, err)
	}
	return data, nil
}

// Decode deserialises a request snapshot.
func Decode(data []byte) (*model.Request, error) {
	r := &model.Request{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return r, nil
}
