package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/criteria"
	"github.com/viant/signoff/service/dao/request"
)

// Service is a request store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// Filter columns are duplicated out of the snapshot so List can push
// filtering down to SQL.
type Service struct {
	db *sql.DB
}

var _ request.Service = (*Service)(nil)

var columns = map[string]string{
	request.FieldStatus:    "status",
	request.FieldRequester: "requester",
	request.FieldType:      "request_type",
	request.FieldPriority:  "priority",
}

// New initializes the schema in db and returns the store.
func New(ctx context.Context, db *sql.DB) (*Service, error) {
	s := &Service{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS approval_requests (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			requester TEXT NOT NULL,
			request_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			snapshot BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to create approval_requests: %w", err)
	}
	return nil
}

func (s *Service) Save(ctx context.Context, r *model.Request) error {
	data, err := request.Encode(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (id, status, requester, request_type, priority, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			requester = excluded.requester,
			request_type = excluded.request_type,
			priority = excluded.priority,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		r.ID, string(r.Status), r.Requester, string(r.Type), string(r.Priority), data, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save request %s: %w", r.ID, err)
	}
	return nil
}

func (s *Service) Load(ctx context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM approval_requests WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM approval_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete request %s: %w", id, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Request, error) {
	query := `SELECT snapshot FROM approval_requests`
	var where []string
	var args []interface{}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		column, ok := columns[parameter.Name]
		if !ok {
			continue
		}
		values := criteria.Values(parameter)
		if len(values) == 0 {
			continue
		}
		where = append(where, column+" IN ("+strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")+")")
		for _, value := range values {
			args = append(args, value)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()
	var ret []*model.Request
	for rows.Next() {
		var data []byte
		if err = rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := request.Decode(data)
		if err != nil {
			return nil, err
		}
		ret = append(ret, r)
	}
	return ret, rows.Err()
}
