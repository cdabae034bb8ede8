package errors

import "sync"

// ErrorHook is called for every error produced by ErrorBuilder.Build
type ErrorHook func(ee *EnhancedError)

var (
	hooksMu sync.RWMutex
	hooks   []ErrorHook
)

// AddErrorHook registers a hook that observes every built error.
// Hooks run synchronously on the building goroutine and must not block.
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, hook)
}

// ClearErrorHooks removes all registered hooks
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = nil
}

func runHooks(ee *EnhancedError) {
	hooksMu.RLock()
	current := hooks
	hooksMu.RUnlock()

	for _, hook := range current {
		hook(ee)
	}
}
