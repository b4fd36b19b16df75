package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/signoff/service/dao/request/daotest"
	_ "modernc.org/sqlite"
)

func TestService(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := New(context.Background(), db)
	require.NoError(t, err)
	daotest.Run(t, svc)
}
