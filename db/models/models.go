package models

import "sync"

var (
	registered   []any
	registeredMu sync.Mutex
)

func registerModel(model any) {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	registered = append(registered, model)
}

// GetModels returns every model that must be migrated.
func GetModels() []any {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	return append([]any(nil), registered...)
}
