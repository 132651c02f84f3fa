package edge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/cachestore"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

var testManifest = []string{"/", "/static/js/bundle.js", "/static/css/main.css", "/manifest.json"}

func newTestController(t *testing.T, o *origin, store cachestore.Store, version string, skipWaiting bool, n Notifier) *Controller {
	t.Helper()
	c, err := NewController(ControllerOptions{
		Store:       store,
		Version:     version,
		Manifest:    testManifest,
		Origin:      o.url(t),
		Client:      o.Client(),
		SkipWaiting: skipWaiting,
		Notifier:    n,
		Logger:      logger.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestController_InstallThenActivate(t *testing.T) {
	ctx := context.Background()
	o := newOrigin(t)
	store := cachestore.NewMemoryStore()
	notifier := &recordingNotifier{}

	stale, err := store.Open("theology-pwa-v0.9.0")
	require.NoError(t, err)
	require.NoError(t, stale.Put("/", cachestore.NewEntry("/", 200, nil, []byte("old"))))

	c := newTestController(t, o, store, "theology-pwa-v1.0.0", false, notifier)
	assert.Equal(t, StateParsed, c.State())

	require.NoError(t, c.Install(ctx))
	assert.Equal(t, StateInstalled, c.State())
	assert.True(t, c.Status().Waiting)
	assert.Nil(t, c.ActiveCache())

	cache, err := store.Open("theology-pwa-v1.0.0")
	require.NoError(t, err)
	keys, err := cache.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, testManifest, keys)

	require.NoError(t, c.Activate(ctx))
	assert.Equal(t, StateActivated, c.State())
	require.NotNil(t, c.ActiveCache())
	assert.Equal(t, "theology-pwa-v1.0.0", c.ActiveCache().Name())

	versions, err := store.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"theology-pwa-v1.0.0"}, versions)

	st := c.Status()
	assert.False(t, st.Waiting)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, []string{EventControllerChange}, notifier.kinds())

	// activating again without a new install is a no-op
	require.NoError(t, c.Activate(ctx))
	assert.Equal(t, uint64(1), c.Status().Generation)
}

func TestController_SkipWaitingOnInstall(t *testing.T) {
	o := newOrigin(t)
	c := newTestController(t, o, cachestore.NewMemoryStore(), "v1", true, nil)

	require.NoError(t, c.Install(context.Background()))
	assert.Equal(t, StateActivated, c.State())
	require.NotNil(t, c.ActiveCache())

	hit, err := c.ActiveCache().Match("/")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "<html>app</html>", string(hit.Body))
}

func TestController_InstallIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	o := newOrigin(t)
	store := cachestore.NewMemoryStore()

	previous := newTestController(t, o, store, "v1", true, nil)
	require.NoError(t, previous.Install(ctx))

	o.fail("/static/css/main.css")
	next := newTestController(t, o, store, "v2", true, nil)
	require.NoError(t, next.Restore())

	err := next.Install(ctx)
	require.ErrorIs(t, err, ErrInstallFailed)
	assert.Equal(t, StateRedundant, next.State())

	versions, err := store.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, versions)

	require.NotNil(t, next.ActiveCache())
	assert.Equal(t, "v1", next.ActiveCache().Name(), "previous version stays in control")
}

func TestController_Restore(t *testing.T) {
	o := newOrigin(t)
	store := cachestore.NewMemoryStore()
	stored := map[string]time.Time{
		"theology-pwa-v1.9.0":  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"theology-pwa-v1.10.0": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"theology-pwa-v1.2.0":  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for v, at := range stored {
		cache, err := store.Open(v)
		require.NoError(t, err)
		entry := cachestore.NewEntry("/", 200, nil, []byte(v))
		entry.StoredAt = at
		require.NoError(t, cache.Put("/", entry))
	}

	c := newTestController(t, o, store, "theology-pwa-v1.2.0", false, nil)
	require.NoError(t, c.Restore())
	assert.Equal(t, "theology-pwa-v1.2.0", c.ActiveCache().Name(), "current version wins when present")

	c = newTestController(t, o, store, "theology-pwa-v2.0.0", false, nil)
	require.NoError(t, c.Restore())
	assert.Equal(t, "theology-pwa-v1.10.0", c.ActiveCache().Name(), "most recently stored version wins")

	bare := cachestore.NewMemoryStore()
	_, err := bare.Open("unused")
	require.NoError(t, err)
	c = newTestController(t, o, bare, "v1", false, nil)
	require.NoError(t, c.Restore())
	assert.Nil(t, c.ActiveCache(), "versions without entries are not restored")

	empty := newTestController(t, o, cachestore.NewMemoryStore(), "v1", false, nil)
	require.NoError(t, empty.Restore())
	assert.Nil(t, empty.ActiveCache())
}

// slowVersions widens the window between claiming and completing an activation.
type slowVersions struct {
	*cachestore.MemoryStore
}

func (s slowVersions) Versions() ([]string, error) {
	time.Sleep(20 * time.Millisecond)
	return s.MemoryStore.Versions()
}

func TestController_ConcurrentSkipWaiting(t *testing.T) {
	ctx := context.Background()
	o := newOrigin(t)
	notifier := &recordingNotifier{}
	c := newTestController(t, o, slowVersions{cachestore.NewMemoryStore()}, "v1", false, notifier)
	require.NoError(t, c.Install(ctx))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.HandleMessage(ctx, ControlMessage{Type: MessageSkipWaiting})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, StateActivated, c.State())
	require.NotNil(t, c.ActiveCache(), "activated controller serves the installed version")
	assert.Equal(t, "v1", c.ActiveCache().Name())
	assert.Equal(t, uint64(1), c.Status().Generation)
	assert.False(t, c.Status().Waiting)
	assert.Equal(t, int32(1), notifier.calls.Load())
}

func TestController_HandleMessage(t *testing.T) {
	ctx := context.Background()
	o := newOrigin(t)
	c := newTestController(t, o, cachestore.NewMemoryStore(), "v1", false, nil)

	assert.ErrorIs(t, c.Activate(ctx), ErrNothingWaiting)
	require.NoError(t, c.HandleMessage(ctx, ControlMessage{Type: MessageSkipWaiting}), "nothing waiting is a no-op")
	assert.Equal(t, StateParsed, c.State())

	require.NoError(t, c.Install(ctx))
	require.NoError(t, c.HandleMessage(ctx, ControlMessage{Type: MessageSkipWaiting}))
	assert.Equal(t, StateActivated, c.State())

	assert.ErrorIs(t, c.HandleMessage(ctx, ControlMessage{Type: "RELOAD"}), ErrUnknownMessage)
}

func TestNewController_Validation(t *testing.T) {
	o := newOrigin(t)
	_, err := NewController(ControllerOptions{Version: "v1", Origin: o.url(t)})
	assert.Error(t, err)
	_, err = NewController(ControllerOptions{Store: cachestore.NewMemoryStore(), Origin: o.url(t)})
	assert.Error(t, err)
	_, err = NewController(ControllerOptions{Store: cachestore.NewMemoryStore(), Version: "v1"})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "installing", StateInstalling.String())
	assert.Equal(t, "redundant", StateRedundant.String())
	assert.Equal(t, "unknown", State(42).String())
}
