package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	key, err := loadOrCreateKey(dir, "alice")
	require.NoError(t, err)
	again, err := loadOrCreateKey(dir, "alice")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().Address(), again.PublicKey().Address())

	other, err := loadOrCreateKey(dir, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, key.PublicKey().Address(), other.PublicKey().Address())

	_, err = loadOrCreateKey(dir, "../escape")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.key"), []byte("zz"), 0600))
	_, err = loadOrCreateKey(dir, "broken")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "error", "none"} {
		_, err := newLogger(os.Stderr, level)
		assert.NoError(t, err, level)
	}
	_, err := newLogger(os.Stderr, "loud")
	assert.Error(t, err)
}
