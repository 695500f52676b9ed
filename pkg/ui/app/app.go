// Package app defines the contract between the window manager and the
// applications it hosts.
package app

import (
	"fmt"
	"slices"
	"sync"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Application is hosted in a window.
//
// Setup populates content, whose bounds are the window's content viewport
// of width × height cells. It is called again after every geometry change,
// after Teardown; content is never preserved across a rebuild.
type Application interface {
	Name() string
	Setup(content *widgets.Container, width, height int)
	Teardown()
}

// IconProvider is implemented by applications that draw their own icon.
type IconProvider interface {
	HasIcon() bool
	DrawIcon(c *runtime.Canvas, r runtime.Rect)
}

// MenuProvider is implemented by applications with a window menu bar.
type MenuProvider interface {
	Menus() []widgets.MenuBarEntry
}

// TimerOwner is implemented by applications running cooperative timers.
// The manager ticks them on the UI goroutine and stops them on close.
type TimerOwner interface {
	Timers() *Timers
}

// Factory creates a fresh application instance.
type Factory func() Application

// Registry maps application names to factories, keeping registration order.
type Registry struct {
	mu        sync.RWMutex
	names     []string
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a name twice is an error.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register app: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register app: %q already registered", name)
	}
	r.factories[name] = f
	r.names = append(r.names, name)
	return nil
}

// MustRegister is Register for static tables.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// New instantiates the named application.
func (r *Registry) New(name string) (Application, bool) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names lists registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}
