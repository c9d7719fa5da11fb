// Package inject binds handler parameters to the values collected for one
// invocation. Handlers are plain functions; each parameter is filled by type.
package inject

import (
	"reflect"
	"sync"
)

// Context is the per-invocation bag of values handlers draw their parameters
// from. It is created for one event and never shared between events.
type Context struct {
	mu     sync.RWMutex
	values map[reflect.Type]reflect.Value
	order  []reflect.Type
}

func NewContext(values ...any) *Context {
	c := &Context{values: make(map[reflect.Type]reflect.Value)}
	c.Provide(values...)

	return c
}

// Provide stores each non-nil value under its dynamic type, replacing any
// earlier value of the same type.
func (c *Context) Provide(values ...any) {
	for _, v := range values {
		if v == nil {
			continue
		}

		c.set(reflect.ValueOf(v))
	}
}

// ProvideAs stores v under the static type T, which is how interface values
// are registered under their interface type.
func ProvideAs[T any](c *Context, v T) {
	c.set(reflect.ValueOf(&v).Elem())
}

// Get returns the value stored for T, if any.
func Get[T any](c *Context) (T, bool) {
	var zero T

	v, ok := c.Lookup(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}

	out, ok := v.Interface().(T)
	return out, ok
}

// Lookup finds the value for t. An interface type without an exact entry is
// satisfied by the first stored value implementing it, in provision order.
func (c *Context) Lookup(t reflect.Type) (reflect.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.values[t]; ok {
		return v, true
	}

	if t.Kind() != reflect.Interface {
		return reflect.Value{}, false
	}

	for _, key := range c.order {
		v := c.values[key]
		if v.Kind() == reflect.Interface && v.IsNil() {
			continue
		}

		if key.Implements(t) {
			return v, true
		}
	}

	return reflect.Value{}, false
}

// Len returns the number of stored values.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}

func (c *Context) set(v reflect.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := v.Type()
	if _, ok := c.values[t]; !ok {
		c.order = append(c.order, t)
	}
	c.values[t] = v
}
