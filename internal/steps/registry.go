package steps

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр handler'ов.
//
// Заполняется при старте и дальше используется только на чтение:
// планировщик разрешает handler каждого шага один раз до запуска.
// Потокобезопасен.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными handler'ами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(HandlerNoop, NewNoopHandler())
	r.Register(HandlerFail, NewFailHandler())
	r.Register(HandlerDelay, NewDelayHandler())
	r.Register(HandlerHTTP, NewHTTPHandler())
	r.Register(HandlerExec, NewExecHandler())
	r.Register(HandlerManifest, NewManifestHandler())

	return r
}

// Register регистрирует handler под именем name.
// Если handler с таким именем уже существует, он будет перезаписан.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// RegisterFunc регистрирует функцию как handler.
func (r *Registry) RegisterFunc(name string, fn HandlerFunc) {
	r.Register(name, fn)
}

// Get возвращает handler по имени.
// Возвращает ErrHandlerNotFound, если handler не найден.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}

	return h, nil
}

// Has проверяет, зарегистрирован ли handler.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[name]
	return exists
}

// Names возвращает отсортированный список имён handler'ов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных handler'ов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Unregister удаляет handler из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}
