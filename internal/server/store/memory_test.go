package store

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/memoire/internal/common"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	data := []byte{0x00, 0xff, 0x10, 'a'}
	c, err := m.Upload(ctx, data)
	require.NoError(t, err)

	// mutating the caller's buffer does not change stored content
	data[0] = 0x42

	rc, err := m.Fetch(ctx, c)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10, 'a'}, got)
}

func TestMemory_EmptyBuffer(t *testing.T) {
	m := NewMemory()
	c, err := m.Upload(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c)

	rc, err := m.Fetch(context.Background(), c)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Empty(t, got)
}

func TestMemory_NotFound(t *testing.T) {
	_, err := NewMemory().Fetch(context.Background(), "bafkreidoesnotexist")
	assert.ErrorIs(t, err, common.ErrContentNotFound)
}

func TestMemory_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Upload(ctx, []byte("x"))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
