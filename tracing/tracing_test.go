package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")
	require.NoError(t, Init("signoff", "0.0.1", fname))

	_, span := StartSpan(context.Background(), "approval.test")
	span.WithAttributes(map[string]string{"request_id": "r1", "step_id": ""})
	EndSpan(span, errors.New("boom"))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "approval.test")
	assert.Contains(t, string(data), "request_id")
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"k": "v"}))
	span.SetStatus(nil)
	EndSpan(nil, nil)
}
