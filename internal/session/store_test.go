package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	sess := core.Session{
		Token: "tok-abc",
		User:  &core.User{ID: "u1", Username: "sam", Email: "sam@example.com"},
	}
	require.NoError(t, store.Save(sess))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", got.Token)
	require.NotNil(t, got.User)
	assert.Equal(t, "sam", got.User.Username)
}

func TestFileStore_TokenFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(core.Session{Token: "tok-abc"}))

	info, err := os.Stat(filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_ClearRemovesBothKeys(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(core.Session{
		Token: "tok-abc",
		User:  &core.User{ID: "u1", Username: "sam"},
	}))

	require.NoError(t, store.Clear())

	_, err := os.Stat(filepath.Join(dir, "token"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "user.json"))
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	require.NoError(t, store.Clear())
}

func TestFileStore_SaveWithoutUserDropsStaleProfile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(core.Session{
		Token: "tok-1",
		User:  &core.User{ID: "u1", Username: "sam"},
	}))

	// A token-only save (e.g. after refresh from a caller without the
	// profile) must not leave the old profile paired with the new token
	// looking authoritative when the caller dropped it on purpose.
	require.NoError(t, store.Save(core.Session{Token: "tok-2"}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
	assert.Nil(t, got.User)
}

func TestFileStore_CorruptUserFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(core.Session{Token: "tok-abc"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte("{not json"), 0o600))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", got.Token)
	assert.Nil(t, got.User)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(core.Session{Token: "tok"}))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
