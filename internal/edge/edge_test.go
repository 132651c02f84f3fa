package edge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/cachestore"
)

// origin is a test web app that counts requests per path.
type origin struct {
	*httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	failOn string
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{hits: make(map[string]int)}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits[r.URL.RequestURI()]++
		failOn := o.failOn
		o.mu.Unlock()

		switch {
		case r.URL.Path == failOn:
			http.Error(w, "boom", http.StatusInternalServerError)
		case r.URL.Path == "/missing":
			http.NotFound(w, r)
		case r.URL.Path == "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>app</html>"))
		default:
			w.Write([]byte("asset " + r.URL.RequestURI()))
		}
	}))
	t.Cleanup(o.Close)
	return o
}

func (o *origin) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

func (o *origin) fail(path string) {
	o.mu.Lock()
	o.failOn = path
	o.mu.Unlock()
}

func (o *origin) url(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(o.URL)
	require.NoError(t, err)
	return u
}

// staticSource always yields the same cache.
type staticSource struct {
	cache cachestore.Cache
}

func (s staticSource) ActiveCache() cachestore.Cache { return s.cache }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var errOffline = errors.New("network unreachable")

func offlineTransport() http.RoundTripper {
	return roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errOffline })
}

// recordingNotifier keeps every event it is given.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
	calls  atomic.Int32
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) error {
	n.calls.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}
