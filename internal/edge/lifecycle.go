package edge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/theology-chat/internal/cachestore"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
	"github.com/capitalize-ai/theology-chat/pkg/metrics"
)

// MessageSkipWaiting asks a waiting version to activate immediately.
const MessageSkipWaiting = "SKIP_WAITING"

var (
	// ErrInstallFailed wraps any manifest fetch or store failure during install.
	ErrInstallFailed = errors.New("install failed")
	// ErrNothingWaiting is returned by Activate when no version is installed.
	ErrNothingWaiting = errors.New("no installed version is waiting")
	// ErrUnknownMessage is returned for control messages with an unknown type.
	ErrUnknownMessage = errors.New("unknown control message")
)

// State is a lifecycle state.
type State int

const (
	StateParsed State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// ControlMessage is a page-to-edge message.
type ControlMessage struct {
	Type string `json:"type"`
}

// Status is a snapshot of the controller.
type Status struct {
	State         string `json:"state"`
	Version       string `json:"version"`
	ActiveVersion string `json:"active_version,omitempty"`
	Waiting       bool   `json:"waiting"`
	Generation    uint64 `json:"generation"`
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Store    cachestore.Store
	Version  string
	Manifest []string
	Origin   *url.URL
	Client   *http.Client
	// SkipWaiting activates immediately after a successful install.
	SkipWaiting bool
	Notifier    Notifier
	Logger      *logger.Logger
}

// Controller drives install, activate and update transitions for one cache
// version against a shared store.
type Controller struct {
	store       cachestore.Store
	version     string
	manifest    []string
	origin      *url.URL
	client      *http.Client
	skipWaiting bool
	notifier    Notifier
	logger      *logger.Logger

	installMu sync.Mutex

	mu         sync.RWMutex
	state      State
	active     cachestore.Cache
	waiting    cachestore.Cache
	generation uint64
}

// NewController creates a controller in the parsed state.
func NewController(opts ControllerOptions) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("controller store is required")
	}
	if opts.Version == "" {
		return nil, errors.New("controller version is required")
	}
	if opts.Origin == nil {
		return nil, errors.New("controller origin is required")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	return &Controller{
		store:       opts.Store,
		version:     opts.Version,
		manifest:    opts.Manifest,
		origin:      opts.Origin,
		client:      client,
		skipWaiting: opts.SkipWaiting,
		notifier:    notifier,
		logger:      log.Named("lifecycle").With(zap.String("version", opts.Version)),
		state:       StateParsed,
	}, nil
}

// Restore puts a version left in the store by a previous run in control, so
// that a failed install keeps serving it. The current version wins when
// present; otherwise the version holding the most recently stored entry is
// used.
func (c *Controller) Restore() error {
	versions, err := c.store.Versions()
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return nil
	}

	var cache cachestore.Cache
	for _, v := range versions {
		if v == c.version {
			if cache, err = c.store.Open(v); err != nil {
				return err
			}
			break
		}
	}
	if cache == nil {
		if cache, err = c.newestVersion(versions); err != nil {
			return err
		}
	}
	if cache == nil {
		return nil
	}
	name := cache.Name()

	c.mu.Lock()
	c.active = cache
	c.mu.Unlock()
	c.logger.Info("restored cache from previous run", zap.String("cache", name))
	return nil
}

// newestVersion returns the cache whose latest entry was stored last.
// Versions without entries are skipped; nil means none has any.
func (c *Controller) newestVersion(versions []string) (cachestore.Cache, error) {
	var (
		newest   cachestore.Cache
		newestAt time.Time
	)
	for _, v := range versions {
		cache, err := c.store.Open(v)
		if err != nil {
			return nil, err
		}
		keys, err := cache.Keys()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			entry, err := cache.Match(key)
			if err != nil || entry == nil {
				continue
			}
			if newest == nil || entry.StoredAt.After(newestAt) {
				newest, newestAt = cache, entry.StoredAt
			}
		}
	}
	return newest, nil
}

// Install pre-populates the current version with every manifest asset. It is
// all-or-nothing: any failed fetch leaves no trace of the version and keeps
// the previously active version (if any) in control.
func (c *Controller) Install(ctx context.Context) error {
	c.installMu.Lock()
	defer c.installMu.Unlock()

	c.setState(StateInstalling)
	c.logger.Info("installing", zap.Int("assets", len(c.manifest)))

	entries, err := c.fetchManifest(ctx)
	if err != nil {
		c.setState(StateRedundant)
		c.logger.Error("install failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	cache, err := c.store.Open(c.version)
	if err != nil {
		c.setState(StateRedundant)
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	for _, entry := range entries {
		if err := cache.Put(entry.URL, entry); err != nil {
			c.discardVersion()
			c.setState(StateRedundant)
			return fmt.Errorf("%w: %v", ErrInstallFailed, err)
		}
	}

	c.mu.Lock()
	c.waiting = cache
	c.mu.Unlock()
	c.setState(StateInstalled)
	c.logger.Info("install complete")

	if c.skipWaiting {
		return c.Activate(ctx)
	}
	return nil
}

func (c *Controller) fetchManifest(ctx context.Context) ([]*cachestore.Entry, error) {
	entries := make([]*cachestore.Entry, len(c.manifest))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range c.manifest {
		i, path := i, path
		g.Go(func() error {
			entry, err := c.fetchAsset(gctx, path)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Controller) fetchAsset(ctx context.Context, path string) (*cachestore.Entry, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest entry %q: %w", path, err)
	}
	target := c.origin.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cachestore.NewEntry(CacheKey(target), resp.StatusCode, resp.Header, body), nil
}

// discardVersion removes a partially written version unless it is the one
// already in control.
func (c *Controller) discardVersion() {
	c.mu.RLock()
	inControl := c.active != nil && c.active.Name() == c.version
	c.mu.RUnlock()
	if inControl {
		return
	}
	if err := c.store.Delete(c.version); err != nil {
		c.logger.Warn("failed to discard partial install", zap.Error(err))
	}
}

// Activate evicts every cache version other than the current one, puts the
// waiting version in control, and claims open clients.
func (c *Controller) Activate(ctx context.Context) error {
	// The waiting handle is claimed here so that overlapping calls activate
	// it exactly once.
	c.mu.Lock()
	waiting := c.waiting
	if waiting == nil {
		busy := c.state == StateActivating || c.state == StateActivated
		c.mu.Unlock()
		if busy {
			return nil
		}
		return ErrNothingWaiting
	}
	c.waiting = nil
	c.state = StateActivating
	c.mu.Unlock()
	metrics.EdgeLifecycleTransitions.WithLabelValues(StateActivating.String()).Inc()

	versions, err := c.store.Versions()
	if err != nil {
		c.logger.Warn("failed to list cache versions", zap.Error(err))
	}
	remaining := 0
	for _, name := range versions {
		if name == c.version {
			remaining++
			continue
		}
		// best effort per name
		if err := c.store.Delete(name); err != nil {
			c.logger.Warn("failed to delete stale cache", zap.String("cache", name), zap.Error(err))
			remaining++
			continue
		}
		c.logger.Info("deleted stale cache", zap.String("cache", name))
	}
	metrics.EdgeCacheVersions.Set(float64(remaining))

	c.mu.Lock()
	c.active = waiting
	c.state = StateActivated
	c.generation++
	generation := c.generation
	c.mu.Unlock()
	metrics.EdgeLifecycleTransitions.WithLabelValues(StateActivated.String()).Inc()

	c.claim(ctx, generation)
	c.logger.Info("activation complete", zap.Uint64("generation", generation))
	return nil
}

// claim takes control of already-open clients without a reload.
func (c *Controller) claim(ctx context.Context, generation uint64) {
	err := c.notifier.Notify(ctx, Event{
		Kind: EventControllerChange,
		Payload: map[string]any{
			"version":    c.version,
			"generation": generation,
		},
		At: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("failed to announce controller change", zap.Error(err))
	}
}

// HandleMessage processes a control message from a controlling page.
func (c *Controller) HandleMessage(ctx context.Context, msg ControlMessage) error {
	switch msg.Type {
	case MessageSkipWaiting:
		c.mu.RLock()
		waiting := c.waiting != nil
		c.mu.RUnlock()
		if !waiting {
			return nil
		}
		c.logger.Info("skip waiting requested")
		return c.Activate(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

// ActiveCache implements CacheSource.
func (c *Controller) ActiveCache() cachestore.Cache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{
		State:      c.state.String(),
		Version:    c.version,
		Waiting:    c.waiting != nil,
		Generation: c.generation,
	}
	if c.active != nil {
		st.ActiveVersion = c.active.Name()
	}
	return st
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	metrics.EdgeLifecycleTransitions.WithLabelValues(s.String()).Inc()
}
