package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/models"
)

// Channel is the NOTIFY channel the change triggers publish on.
const Channel = "store_changes"

// ErrUnknownPath is returned when no loader serves the root of a subscribed path.
var ErrUnknownPath = errors.New("unknown subscription path")

// Query identifies the subtree a loader must snapshot.
type Query struct {
	Path     string
	Segments []string
	// Owner restricts owner-scoped collections to one user's documents when non-empty.
	Owner string
}

// Loader returns the full current value of a subtree.
type Loader func(ctx context.Context, q Query) (interface{}, error)

type subscription struct {
	id       uint64
	query    Query
	onChange func(models.Snapshot)
}

// Hub fans change notifications out to path subscribers. Callbacks run serially on the
// goroutine executing Run. Pending changes are coalesced per path, so nothing is dropped.
type Hub struct {
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	loaders map[string]Loader
	subs    map[uint64]*subscription
	nextID  uint64
	initial []uint64
	changed []string
	pending map[string]struct{}

	wake chan struct{}
}

// NewHub constructs an idle hub; call Run to start delivering.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		timeout: 10 * time.Second,
		loaders: make(map[string]Loader),
		subs:    make(map[uint64]*subscription),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Register binds a loader to a collection root such as "requests".
func (h *Hub) Register(collection string, loader Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaders[collection] = loader
}

// Collections lists the registered collection roots.
func (h *Hub) Collections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.loaders))
	for name := range h.loaders {
		out = append(out, name)
	}
	return out
}

// NormalizePath returns the canonical form of a subscription path and its segments. Slashes
// around the path, blank segments and whitespace around segments are dropped.
func NormalizePath(path string) (string, []string) {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/"), out
}

// Subscribe registers onChange for path. The current snapshot is delivered first, then a new
// snapshot after every change under path. The returned func cancels the subscription.
func (h *Hub) Subscribe(path, owner string, onChange func(models.Snapshot)) (func(), error) {
	canonical, segments := NormalizePath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}

	h.mu.Lock()
	if _, ok := h.loaders[segments[0]]; !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	h.nextID++
	sub := &subscription{
		id:       h.nextID,
		query:    Query{Path: canonical, Segments: segments, Owner: owner},
		onChange: onChange,
	}
	h.subs[sub.id] = sub
	h.initial = append(h.initial, sub.id)
	h.mu.Unlock()
	h.signal()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub.id)
			h.mu.Unlock()
		})
	}, nil
}

// Publish records a change at path. It never blocks; a path already waiting for delivery is
// not queued twice.
func (h *Hub) Publish(path string) {
	canonical, segments := NormalizePath(path)
	if len(segments) == 0 {
		return
	}
	h.mu.Lock()
	if _, ok := h.pending[canonical]; !ok {
		h.pending[canonical] = struct{}{}
		h.changed = append(h.changed, canonical)
	}
	h.mu.Unlock()
	h.signal()
}

func (h *Hub) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// take hands over everything pending, initial snapshots first.
func (h *Hub) take() ([]uint64, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	initial, changed := h.initial, h.changed
	h.initial, h.changed = nil, nil
	h.pending = make(map[string]struct{})
	return initial, changed
}

// Run dispatches events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
		}
		initial, changed := h.take()
		for _, id := range initial {
			h.dispatch(ctx, event{target: id})
		}
		for _, path := range changed {
			h.dispatch(ctx, event{path: path})
		}
	}
}

type event struct {
	path string
	// target limits delivery to a single subscription (initial snapshot).
	target uint64
}

func (h *Hub) dispatch(ctx context.Context, ev event) {
	h.mu.Lock()
	targets := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if ev.target != 0 {
			if sub.id == ev.target {
				targets = append(targets, sub)
			}
			continue
		}
		if Matches(sub.query.Path, ev.path) {
			targets = append(targets, sub)
		}
	}
	loaders := make(map[string]Loader, len(targets))
	for _, sub := range targets {
		loaders[sub.query.Segments[0]] = h.loaders[sub.query.Segments[0]]
	}
	h.mu.Unlock()

	for _, sub := range targets {
		loadCtx, cancel := context.WithTimeout(ctx, h.timeout)
		data, err := loaders[sub.query.Segments[0]](loadCtx, sub.query)
		cancel()
		if err != nil {
			h.logger.Warn("load snapshot", zap.String("path", sub.query.Path), zap.Error(err))
			continue
		}
		if !h.active(sub.id) {
			continue
		}
		sub.onChange(models.Snapshot{Path: sub.query.Path, Data: data, At: time.Now().UTC()})
	}
}

func (h *Hub) active(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[id]
	return ok
}

// Matches reports whether a change at changed affects a subscription on subscribed.
// Either may be an ancestor of the other.
func Matches(subscribed, changed string) bool {
	if subscribed == changed {
		return true
	}
	return strings.HasPrefix(changed, subscribed+"/") || strings.HasPrefix(subscribed, changed+"/")
}
