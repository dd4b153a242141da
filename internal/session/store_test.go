package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bus-tracking/internal/domain"
)

var asha = domain.Profile{ID: "u-1", Name: "Asha Rawat", Email: "asha@geu.ac.in", Role: domain.RoleStudent}

type flakyStorage struct {
	*MemoryStorage
	failKey string
}

func (f *flakyStorage) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("quota exceeded")
	}
	return f.MemoryStorage.Set(key, value)
}

func TestStoreSaveAndRead(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	assert.True(t, store.Read().Empty())
	assert.False(t, store.IsActive())

	require.NoError(t, store.Save("tok-1", asha))
	got := store.Read()
	assert.Equal(t, "tok-1", got.Token)
	require.NotNil(t, got.Profile)
	assert.Equal(t, asha, *got.Profile)
	assert.True(t, store.IsActive())
}

func TestStoreSaveRejectsHalfSession(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	assert.ErrorIs(t, store.Save("", asha), ErrIncomplete)
	assert.ErrorIs(t, store.Save("tok", domain.Profile{}), ErrIncomplete)
	assert.True(t, store.Read().Empty())
}

func TestStoreSaveRollsBackToken(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage(), failKey: userKey}
	store := NewStore(storage)

	assert.Error(t, store.Save("tok-1", asha))
	assert.False(t, store.IsActive())
	_, ok, _ := storage.Get(tokenKey)
	assert.False(t, ok)
}

func TestStoreSaveRollbackRestoresPreviousToken(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage()}
	store := NewStore(storage)
	require.NoError(t, store.Save("tok-old", asha))

	storage.failKey = userKey
	assert.Error(t, store.Save("tok-new", asha))

	got := store.Read()
	assert.Equal(t, "tok-old", got.Token)
	assert.Equal(t, asha, *got.Profile)
}

func TestStoreReadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"token only", map[string]string{tokenKey: "tok"}},
		{"user only", map[string]string{userKey: `{"id":"u-1"}`}},
		{"garbage user", map[string]string{tokenKey: "tok", userKey: "{not json"}},
		{"user without id", map[string]string{tokenKey: "tok", userKey: `{"name":"x"}`}},
		{"empty token", map[string]string{tokenKey: "", userKey: `{"id":"u-1"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			for k, v := range tt.values {
				require.NoError(t, storage.Set(k, v))
			}
			got := NewStore(storage).Read()
			assert.True(t, got.Empty())
			assert.Nil(t, got.Profile)
			assert.Empty(t, got.Token)
		})
	}
}

func TestStoreReadKeepsUnknownRole(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(tokenKey, "tok"))
	require.NoError(t, storage.Set(userKey, `{"id":"u-1","role":"admin"}`))

	got := NewStore(storage).Read()
	require.NotNil(t, got.Profile)
	assert.Equal(t, domain.Role("admin"), got.Profile.Role)
}

func TestStoreClearIsIdempotent(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	require.NoError(t, store.Save("tok-1", asha))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.True(t, store.Read().Empty())
	assert.False(t, store.IsActive())
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewStore(NewFileStorage(path))

	assert.True(t, store.Read().Empty())
	require.NoError(t, store.Save("tok-1", asha))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewStore(NewFileStorage(path)).Read()
	assert.Equal(t, "tok-1", reopened.Token)
	assert.Equal(t, asha, *reopened.Profile)

	require.NoError(t, store.Clear())
	assert.True(t, NewStore(NewFileStorage(path)).Read().Empty())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStorageCorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	storage := NewFileStorage(path)
	_, _, err := storage.Get(tokenKey)
	assert.Error(t, err)
	assert.True(t, NewStore(storage).Read().Empty())
}
