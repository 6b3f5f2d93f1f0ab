package registry

import (
	"log/slog"
	"sync"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// Handle is a live subprocess owned by the registry once inserted.
type Handle interface {
	// Kill terminates the process. Killing an exited process is not an error.
	Kill() error
	// Wait blocks until the process exits. It is safe to call more than once.
	Wait() error
}

// Registry maps session keys to live subprocess handles. A key is present
// only while its subprocess is alive and not yet reaped. All operations run
// under a single mutex; kill and wait happen after the entry is removed and
// outside the lock.
type Registry struct {
	log *slog.Logger

	mu      sync.Mutex
	handles map[string]Handle
}

// New creates an empty registry.
func New(log *slog.Logger) *Registry {
	return &Registry{
		log:     log.With("component", "registry"),
		handles: make(map[string]Handle, 8),
	}
}

// Insert registers h under key. It fails with ErrSessionRunning if the key is
// already taken, leaving the existing entry untouched.
func (r *Registry) Insert(key string, h Handle) error {
	if key == "" {
		return errors.ErrInvalidSessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; exists {
		return errors.ErrSessionRunning
	}

	r.handles[key] = h

	r.log.Debug("Registered process", "session_key", key)

	return nil
}

// Remove deletes and returns the handle for key without killing it.
func (r *Registry) Remove(key string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[key]
	if ok {
		delete(r.handles, key)
	}

	return h, ok
}

// Rekey moves the handle registered under oldKey to newKey. It is a no-op
// returning false when oldKey is absent or newKey is already taken.
func (r *Registry) Rekey(oldKey, newKey string) bool {
	if oldKey == newKey || newKey == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[oldKey]
	if !ok {
		return false
	}

	if _, taken := r.handles[newKey]; taken {
		r.log.Warn("Rekey target already registered", "old_key", oldKey, "new_key", newKey)

		return false
	}

	delete(r.handles, oldKey)
	r.handles[newKey] = h

	r.log.Debug("Rekeyed process", "old_key", oldKey, "new_key", newKey)

	return true
}

// KillAndRemove removes the entry for key, kills its process and waits for
// it to exit. It fails with ErrNotRunning when nothing is registered, which
// includes a key whose stream has already finished.
func (r *Registry) KillAndRemove(key string) error {
	h, ok := r.Remove(key)
	if !ok {
		return errors.ErrNotRunning
	}

	r.log.Debug("Killing process", "session_key", key)

	if err := h.Kill(); err != nil {
		return err
	}

	// The exit status of a killed process is expected to be an error.
	_ = h.Wait()

	return nil
}

// Release removes key only if it still maps to h, then waits for h to exit.
// It reports whether the entry was removed. A false result means a
// concurrent cancel or a later registration already owns the key.
func (r *Registry) Release(key string, h Handle) (bool, error) {
	r.mu.Lock()

	current, ok := r.handles[key]

	removed := ok && current == h
	if removed {
		delete(r.handles, key)
	}

	r.mu.Unlock()

	return removed, h.Wait()
}

// Contains reports whether key has a live process.
func (r *Registry) Contains(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.handles[key]

	return ok
}

// Get returns the handle registered under key.
func (r *Registry) Get(key string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[key]

	return h, ok
}

// Keys returns a snapshot of the registered keys in no particular order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}

	return keys
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

// KillAll kills every registered process and empties the registry.
// It returns the number of processes killed.
func (r *Registry) KillAll() int {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]Handle, 8)
	r.mu.Unlock()

	var wg sync.WaitGroup

	for key, h := range handles {
		wg.Go(func() {
			if err := h.Kill(); err != nil {
				r.log.Warn("Failed to kill process", "session_key", key, "error", err)

				return
			}

			_ = h.Wait()
		})
	}

	wg.Wait()

	return len(handles)
}
