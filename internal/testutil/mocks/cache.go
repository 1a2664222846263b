package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// RestoreCall records a CacheService.Restore invocation.
type RestoreCall struct {
	Paths       []string
	PrimaryKey  string
	RestoreKeys []string
}

// SaveCall records a CacheService.Save invocation.
type SaveCall struct {
	Paths []string
	Key   string
}

// CacheService is a thread-safe test double for ports.CacheService.
type CacheService struct {
	mu           sync.Mutex
	available    bool
	restoredKey  string
	restoreErr   error
	saveErr      error
	onRestore    func()
	restoreCalls []RestoreCall
	saveCalls    []SaveCall
}

// NewCacheService creates an available CacheService mock that misses.
func NewCacheService() *CacheService {
	return &CacheService{available: true}
}

// SetAvailable sets the value returned by Available.
func (m *CacheService) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// SetRestoreResult sets the key and error returned by Restore.
func (m *CacheService) SetRestoreResult(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoredKey = key
	m.restoreErr = err
}

// OnRestore registers fn to run when Restore reports a hit.
func (m *CacheService) OnRestore(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRestore = fn
}

// SetSaveError sets the error returned by Save.
func (m *CacheService) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Available reports the configured availability.
func (m *CacheService) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Restore records the call and returns the configured result.
func (m *CacheService) Restore(_ context.Context, paths []string, primaryKey string, restoreKeys []string) (string, error) {
	m.mu.Lock()
	m.restoreCalls = append(m.restoreCalls, RestoreCall{
		Paths:       append([]string(nil), paths...),
		PrimaryKey:  primaryKey,
		RestoreKeys: append([]string(nil), restoreKeys...),
	})
	key, err, hook := m.restoredKey, m.restoreErr, m.onRestore
	m.mu.Unlock()

	if err == nil && key != "" && hook != nil {
		hook()
	}
	return key, err
}

// Save records the call and returns the configured error.
func (m *CacheService) Save(_ context.Context, paths []string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls = append(m.saveCalls, SaveCall{Paths: append([]string(nil), paths...), Key: key})
	return m.saveErr
}

// RestoreCalls returns the recorded Restore invocations.
func (m *CacheService) RestoreCalls() []RestoreCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RestoreCall(nil), m.restoreCalls...)
}

// SaveCalls returns the recorded Save invocations.
func (m *CacheService) SaveCalls() []SaveCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SaveCall(nil), m.saveCalls...)
}

// Ensure CacheService implements ports.CacheService.
var _ ports.CacheService = (*CacheService)(nil)
