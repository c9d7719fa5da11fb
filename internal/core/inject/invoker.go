package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
)

var (
	contextType    = reflect.TypeFor[context.Context]()
	bagType        = reflect.TypeFor[*Context]()
	stringType     = reflect.TypeFor[string]()
	errorType      = reflect.TypeFor[error]()
	ErrNotFunction = errors.New("handler is not a function")
	ErrSignature   = errors.New("unsupported handler signature")
)

type returnShape int

const (
	returnsNothing returnShape = iota
	returnsString
	returnsError
	returnsStringError
)

// Func is a compiled handler ready to be called against a Context.
type Func struct {
	fn     reflect.Value
	name   string
	params []reflect.Type
	shape  returnShape
}

// Compile validates fn once, at registration. Supported shapes are any number
// of non-variadic parameters returning (), (string), (error) or (string, error).
func Compile(fn any) (*Func, error) {
	if fn == nil {
		return nil, ErrNotFunction
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, t)
	}

	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic %s", ErrSignature, t)
	}

	f := &Func{fn: v, name: runtime.FuncForPC(v.Pointer()).Name()}

	for i := range t.NumIn() {
		f.params = append(f.params, t.In(i))
	}

	switch {
	case t.NumOut() == 0:
		f.shape = returnsNothing
	case t.NumOut() == 1 && t.Out(0) == stringType:
		f.shape = returnsString
	case t.NumOut() == 1 && t.Out(0) == errorType:
		f.shape = returnsError
	case t.NumOut() == 2 && t.Out(0) == stringType && t.Out(1) == errorType:
		f.shape = returnsStringError
	default:
		return nil, fmt.Errorf("%w: %s", ErrSignature, t)
	}

	return f, nil
}

// MustCompile is Compile for handlers wired at startup.
func MustCompile(fn any) *Func {
	f, err := Compile(fn)
	if err != nil {
		panic(err)
	}

	return f
}

// Name is the fully qualified name of the handler function.
func (f *Func) Name() string {
	return f.name
}

// Params lists the parameter types in declaration order.
func (f *Func) Params() []reflect.Type {
	return f.params
}

// Call binds every parameter and calls the handler. context.Context receives
// ctx, *Context receives the whole bag, anything else comes from c and is the
// zero value when c has nothing for it. A panic in the handler is returned as
// a *PanicError.
func (f *Func) Call(ctx context.Context, c *Context) (result string, err error) {
	args := make([]reflect.Value, len(f.params))
	for i, t := range f.params {
		args[i] = f.bind(ctx, c, t)
	}

	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()

	out := f.fn.Call(args)

	switch f.shape {
	case returnsString:
		return out[0].String(), nil
	case returnsError:
		return "", asError(out[0])
	case returnsStringError:
		return out[0].String(), asError(out[1])
	default:
		return "", nil
	}
}

func (f *Func) bind(ctx context.Context, c *Context, t reflect.Type) reflect.Value {
	switch t {
	case contextType:
		return reflect.ValueOf(&ctx).Elem()
	case bagType:
		return reflect.ValueOf(c)
	}

	if c != nil {
		if v, ok := c.Lookup(t); ok {
			return v
		}
	}

	return reflect.Zero(t)
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	err, _ := v.Interface().(error)
	return err
}
