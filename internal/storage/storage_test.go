package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets both implementations run the same contract tests.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, err := s.Get(KeyToken)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, s.Set(KeyToken, []byte("bearer-abc")))
			got, err := s.Get(KeyToken)
			require.NoError(t, err)
			assert.Equal(t, []byte("bearer-abc"), got)

			// Overwrite replaces.
			require.NoError(t, s.Set(KeyToken, []byte("bearer-def")))
			got, err = s.Get(KeyToken)
			require.NoError(t, err)
			assert.Equal(t, []byte("bearer-def"), got)

			require.NoError(t, s.Delete(KeyToken))
			_, err = s.Get(KeyToken)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			// Deleting a missing key is not an error.
			require.NoError(t, s.Delete("nothing"))
		})
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			require.NoError(t, s.Set(ChatKey("billing"), []byte("{}")))
			require.NoError(t, s.Set(ChatKey("network"), []byte("{}")))
			require.NoError(t, s.Set(KeyToken, []byte("t")))

			keys, err := s.Keys(ChatKeyPrefix)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"chat_billing", "chat_network"}, keys)
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyUser, []byte(`{"id":"u1"}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(KeyUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(got))
}

func TestChatKey(t *testing.T) {
	assert.Equal(t, "chat_billing", ChatKey("billing"))
}
