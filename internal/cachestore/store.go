// Package cachestore provides a versioned store of HTTP responses keyed by URL.
//
// Each cache version is an independent namespace. The edge keeps exactly one
// version current and evicts the others on activation.
package cachestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("cache store is closed")
	// ErrVersionDeleted is returned by Put on a handle whose version was evicted.
	ErrVersionDeleted = errors.New("cache version was deleted")
)

// Entry is a stored response.
type Entry struct {
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header,omitempty"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Store holds cache versions.
type Store interface {
	// Open returns the cache for version, creating it if needed.
	Open(version string) (Cache, error)
	// Versions lists every stored version name.
	Versions() ([]string, error)
	// Delete removes a version and all of its entries. Missing versions are ignored.
	Delete(version string) error
	// Close releases the underlying resources.
	Close() error
}

// Cache is a handle on one cache version.
type Cache interface {
	Name() string
	// Match returns the entry stored under key, or nil when absent.
	Match(key string) (*Entry, error)
	// Put stores entry under key, replacing any previous entry.
	Put(key string, entry *Entry) error
	Keys() ([]string, error)
}

// NewEntry snapshots a response into an entry. The body must already be read.
func NewEntry(url string, status int, header http.Header, body []byte) *Entry {
	return &Entry{
		URL:      url,
		Status:   status,
		Header:   header.Clone(),
		Body:     append([]byte(nil), body...),
		StoredAt: time.Now().UTC(),
	}
}

// Response rebuilds an *http.Response for req from the entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
