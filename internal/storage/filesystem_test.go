package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirWrite(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "exports"))
	require.NoError(t, err)

	key, err := d.Write(context.Background(), "./campaigns//7/donations.xlsx", []byte("PK"))
	require.NoError(t, err)
	assert.Equal(t, "campaigns/7/donations.xlsx", key)

	got, err := os.ReadFile(filepath.Join(d.Root(), "campaigns", "7", "donations.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "PK", string(got))

	entries, err := os.ReadDir(filepath.Join(d.Root(), "campaigns", "7"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not linger")
}

func TestDirRejectsEscapingKeys(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "  ", "../x", "a/../../x", ".", "/"} {
		_, err := d.Write(context.Background(), key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestDirWriteHonoursCancellation(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Write(ctx, "a.xlsx", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewDirRequiresRoot(t *testing.T) {
	_, err := NewDir(" ")
	assert.Error(t, err)
}
