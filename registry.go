package pixfx

import "sync"

type namedFactory struct {
	name    string
	factory EngineFactory
}

// Native engines are tried by the loader in registration order.
var (
	registryMu sync.RWMutex
	natives    []namedFactory
)

// RegisterNative registers a native engine factory under name.
// This is typically called from init() in engine packages:
//
//	import _ "github.com/goldstar105000117/pixfx/gpu" // enables GPU compute
//
// Registering an existing name replaces its factory and keeps its position.
// Contexts that already loaded are not affected.
func RegisterNative(name string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i := range natives {
		if natives[i].name == name {
			natives[i].factory = factory
			return
		}
	}
	natives = append(natives, namedFactory{name: name, factory: factory})
}

// UnregisterNative removes a native engine from the registry.
// This is useful for testing.
func UnregisterNative(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i := range natives {
		if natives[i].name == name {
			natives = append(natives[:i], natives[i+1:]...)
			return
		}
	}
}

// RegisteredNatives returns the registered native engine names in the
// order the loader tries them.
func RegisteredNatives() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, len(natives))
	for i, n := range natives {
		names[i] = n.name
	}
	return names
}

// IsNativeRegistered checks if a native engine with the given name is registered.
func IsNativeRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, n := range natives {
		if n.name == name {
			return true
		}
	}
	return false
}

func registeredFactories() []namedFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]namedFactory(nil), natives...)
}
