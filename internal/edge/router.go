// Package edge implements the offline edge in front of the web app: a
// cache-first request router over a versioned cache store, the lifecycle
// controller that installs and activates cache versions, and the
// notification and background-sync hooks.
package edge

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/cachestore"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
	"github.com/capitalize-ai/theology-chat/pkg/metrics"
)

// OfflineMessage is the body of the synthesized response for navigations
// that fail while nothing is cached.
const OfflineMessage = "Aplicación no disponible offline"

// CacheSource yields the cache currently in control, or nil.
type CacheSource interface {
	ActiveCache() cachestore.Cache
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Origin          *url.URL
	Transport       http.RoundTripper
	Caches          CacheSource
	ExcludePatterns []string
	Logger          *logger.Logger
}

// Router applies the interception policy to outgoing requests. It implements
// http.RoundTripper so it can sit under an httputil.ReverseProxy.
//
// Cache writes happen after the response is handed back to the caller; Wait
// blocks until they have all landed.
type Router struct {
	origin    *url.URL
	transport http.RoundTripper
	caches    CacheSource
	exclude   []string
	logger    *logger.Logger

	pending sync.WaitGroup
}

// NewRouter creates a router.
func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.Origin == nil {
		return nil, fmt.Errorf("router origin is required")
	}
	if opts.Caches == nil {
		return nil, fmt.Errorf("router cache source is required")
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	return &Router{
		origin:    opts.Origin,
		transport: transport,
		caches:    opts.Caches,
		exclude:   opts.ExcludePatterns,
		logger:    log.Named("router"),
	}, nil
}

// RoundTrip implements http.RoundTripper.
func (rt *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		metrics.RecordCacheLookup("bypass")
		return rt.transport.RoundTrip(req)
	}
	if rt.excluded(req.URL.String()) {
		metrics.RecordCacheLookup("bypass")
		return rt.transport.RoundTrip(req)
	}

	cache := rt.caches.ActiveCache()
	if cache == nil {
		metrics.RecordCacheLookup("bypass")
		return rt.transport.RoundTrip(req)
	}

	key := CacheKey(req.URL)
	entry, err := cache.Match(key)
	if err != nil {
		rt.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if entry != nil {
		metrics.RecordCacheLookup("hit")
		rt.logger.Debug("serving from cache", zap.String("key", key))
		return entry.Response(req), nil
	}

	metrics.RecordCacheLookup("miss")
	resp, err := rt.transport.RoundTrip(req)
	if err != nil {
		rt.logger.Warn("network fetch failed", zap.String("url", req.URL.String()), zap.Error(err))
		if IsNavigation(req) {
			metrics.RecordCacheLookup("fallback")
			return rt.offlineFallback(req, cache), nil
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusOK || !rt.sameOrigin(req, resp) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	stored := cachestore.NewEntry(key, resp.StatusCode, resp.Header, body)
	rt.pending.Add(1)
	go func() {
		defer rt.pending.Done()
		if err := cache.Put(key, stored); err != nil {
			rt.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
			return
		}
		metrics.RecordCacheLookup("store")
	}()

	return resp, nil
}

// Wait blocks until every pending cache write has finished.
func (rt *Router) Wait() {
	rt.pending.Wait()
}

func (rt *Router) excluded(rawURL string) bool {
	for _, pattern := range rt.exclude {
		if pattern != "" && strings.Contains(rawURL, pattern) {
			return true
		}
	}
	return false
}

// sameOrigin reports whether resp is a "basic" response: served by the
// configured origin, after any redirects.
func (rt *Router) sameOrigin(req *http.Request, resp *http.Response) bool {
	u := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL
	}
	return strings.EqualFold(u.Scheme, rt.origin.Scheme) && strings.EqualFold(u.Host, rt.origin.Host)
}

func (rt *Router) offlineFallback(req *http.Request, cache cachestore.Cache) *http.Response {
	root, err := cache.Match("/")
	if err == nil && root != nil {
		return root.Response(req)
	}
	body := []byte(OfflineMessage)
	return &http.Response{
		Status:        "503 Service Unavailable",
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// CacheKey is the root-relative form of u, matching manifest entries.
func CacheKey(u *url.URL) string {
	return u.RequestURI()
}

// IsNavigation reports whether req is a top-level document load.
func IsNavigation(req *http.Request) bool {
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return req.Method == http.MethodGet && strings.Contains(req.Header.Get("Accept"), "text/html")
}
