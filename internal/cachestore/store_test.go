package cachestore

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   bolt,
	}
}

func TestStore_PutMatch(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cache, err := store.Open("v1")
			require.NoError(t, err)
			assert.Equal(t, "v1", cache.Name())

			miss, err := cache.Match("/app.js")
			require.NoError(t, err)
			assert.Nil(t, miss)

			header := http.Header{"Content-Type": []string{"text/javascript"}}
			require.NoError(t, cache.Put("/app.js", NewEntry("/app.js", 200, header, []byte("console.log(1)"))))

			hit, err := cache.Match("/app.js")
			require.NoError(t, err)
			require.NotNil(t, hit)
			assert.Equal(t, 200, hit.Status)
			assert.Equal(t, "text/javascript", hit.Header.Get("Content-Type"))
			assert.Equal(t, []byte("console.log(1)"), hit.Body)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cache, err := store.Open("v1")
			require.NoError(t, err)

			require.NoError(t, cache.Put("/", NewEntry("/", 200, nil, []byte("old"))))
			require.NoError(t, cache.Put("/", NewEntry("/", 200, nil, []byte("new"))))

			hit, err := cache.Match("/")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), hit.Body)

			keys, err := cache.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"/"}, keys)
		})
	}
}

func TestStore_VersionsAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			old, err := store.Open("v1")
			require.NoError(t, err)
			require.NoError(t, old.Put("/", NewEntry("/", 200, nil, []byte("v1"))))
			_, err = store.Open("v2")
			require.NoError(t, err)

			versions, err := store.Versions()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"v1", "v2"}, versions)

			require.NoError(t, store.Delete("v1"))
			require.NoError(t, store.Delete("missing"))

			versions, err = store.Versions()
			require.NoError(t, err)
			assert.Equal(t, []string{"v2"}, versions)

			err = old.Put("/late", NewEntry("/late", 200, nil, nil))
			assert.ErrorIs(t, err, ErrVersionDeleted)

			versions, err = store.Versions()
			require.NoError(t, err)
			assert.Equal(t, []string{"v2"}, versions)
		})
	}
}

func TestStore_OpenRejectsEmptyVersion(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Open("")
			assert.Error(t, err)
		})
	}
}

func TestEntry_Response(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)

	entry := NewEntry(req.URL.String(), 200, http.Header{"X-Test": []string{"1"}}, []byte("hello"))
	resp := entry.Response(req)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Test"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}
