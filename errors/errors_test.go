package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	wrapped := Wrapf(sql.ErrNoRows, "lookup taxon %d", 42)

	assert.Contains(t, wrapped.Error(), "lookup taxon 42")
	assert.True(t, Is(wrapped, sql.ErrNoRows))
	assert.NotNil(t, GetStack(wrapped), "wrapped errors carry a stack trace")
}

func TestMarkStoreFailure(t *testing.T) {
	t.Run("marks and keeps cause", func(t *testing.T) {
		cause := New("disk I/O error")
		err := MarkStoreFailure(cause, "insert node")

		require.Error(t, err)
		assert.True(t, IsStoreFailure(err))
		assert.True(t, Is(err, cause))
		assert.Contains(t, err.Error(), "insert node")
	})

	t.Run("survives further wrapping", func(t *testing.T) {
		err := Wrap(MarkStoreFailure(New("boom"), "commit"), "ingest record")
		assert.True(t, IsStoreFailure(err))
		assert.False(t, IsExternalServiceError(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MarkStoreFailure(nil, "noop"))
		assert.NoError(t, MarkExternal(nil, "noop"))
	})
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		store     bool
		external  bool
		malformed bool
	}{
		{"external", MarkExternal(New("timeout"), "crossref"), false, true, false},
		{"malformed", NewMalformedField("latitude [%v] out of range", 91.0), false, false, true},
		{"plain", New("plain"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.store, IsStoreFailure(tt.err))
			assert.Equal(t, tt.external, IsExternalServiceError(tt.err))
			assert.Equal(t, tt.malformed, IsMalformedField(tt.err))
		})
	}
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("node %d", 7)
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "node 7")
	assert.False(t, IsNotFoundError(New("something else")))
}

func TestFormattingIncludesStack(t *testing.T) {
	err := MarkStoreFailure(New("boom"), "update")
	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}
