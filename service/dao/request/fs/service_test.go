package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/signoff/service/dao/request/daotest"
)

func TestService(t *testing.T) {
	svc, err := New(context.Background(), t.TempDir(), afs.New())
	require.NoError(t, err)
	daotest.Run(t, svc)
}
