// Package registry maps configured component names to their implementations.
package registry

import (
	"fmt"
	"sort"
)

// Named is anything the registry can hold.
type Named interface {
	Name() string
}

// Registry keeps a mapping from component names to their implementations.
type Registry struct {
	components map[string]Named
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{components: map[string]Named{}}
}

// Register adds or replaces a component implementation.
func (r *Registry) Register(component Named) {
	if r.components == nil {
		r.components = map[string]Named{}
	}
	r.components[component.Name()] = component
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the component registered under name when it implements T.
func Resolve[T any](r *Registry, name string) (T, error) {
	var zero T
	component, ok := r.components[name]
	if !ok {
		return zero, fmt.Errorf("component %s is not registered", name)
	}
	typed, ok := component.(T)
	if !ok {
		return zero, fmt.Errorf("component %s has the wrong role (%T)", name, component)
	}
	return typed, nil
}

// ResolveAll resolves names in order, returning the components found and one error per skipped name.
func ResolveAll[T any](r *Registry, names []string) ([]T, []error) {
	out := make([]T, 0, len(names))
	var errs []error
	for _, name := range names {
		component, err := Resolve[T](r, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, component)
	}
	return out, errs
}
