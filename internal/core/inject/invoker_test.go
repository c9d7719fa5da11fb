package inject

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet(name string) string
}

type englishGreeter struct{}

func (englishGreeter) Greet(name string) string { return "hello " + name }

type event struct {
	Text string
}

type counter struct {
	n int
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		wantErr error
	}{
		{name: "no returns", fn: func() {}},
		{name: "string", fn: func(*event) string { return "" }},
		{name: "error", fn: func(context.Context) error { return nil }},
		{name: "string and error", fn: func(*Context) (string, error) { return "", nil }},
		{name: "nil", fn: nil, wantErr: ErrNotFunction},
		{name: "not a function", fn: 42, wantErr: ErrNotFunction},
		{name: "variadic", fn: func(...string) string { return "" }, wantErr: ErrSignature},
		{name: "int return", fn: func() int { return 0 }, wantErr: ErrSignature},
		{name: "swapped returns", fn: func() (error, string) { return nil, "" }, wantErr: ErrSignature},
		{name: "three returns", fn: func() (string, string, error) { return "", "", nil }, wantErr: ErrSignature},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Compile(tc.fn)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, f)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, f)
			}
		})
	}
}

func TestCallBindsByType(t *testing.T) {
	c := NewContext(&event{Text: "world"}, &counter{n: 2})
	ProvideAs[greeter](c, englishGreeter{})

	f := MustCompile(func(e *event, g greeter, n *counter) string {
		return fmt.Sprintf("%s x%d", g.Greet(e.Text), n.n)
	})

	got, err := f.Call(t.Context(), c)

	require.NoError(t, err)
	assert.Equal(t, "hello world x2", got)
}

func TestCallOmitsUnknownParameters(t *testing.T) {
	c := NewContext(&event{Text: "x"})

	f := MustCompile(func(e *event, n *counter, g greeter) string {
		return fmt.Sprintf("%s %v %v", e.Text, n == nil, g == nil)
	})

	got, err := f.Call(t.Context(), c)

	require.NoError(t, err)
	assert.Equal(t, "x true true", got)
}

func TestCallMissingDependencySurfacesFromHandler(t *testing.T) {
	f := MustCompile(func(n *counter) string {
		return fmt.Sprint(n.n)
	})

	_, err := f.Call(t.Context(), NewContext())

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Contains(t, panicErr.Error(), "nil pointer dereference")
	assert.NotEmpty(t, panicErr.Frames)
}

func TestCallCatchAll(t *testing.T) {
	c := NewContext(&event{Text: "bag"})

	f := MustCompile(func(ctx context.Context, bag *Context) (string, error) {
		e, ok := Get[*event](bag)
		if !ok {
			return "", errors.New("no event")
		}
		return fmt.Sprintf("%s %d %v", e.Text, bag.Len(), ctx != nil), nil
	})

	got, err := f.Call(t.Context(), c)

	require.NoError(t, err)
	assert.Equal(t, "bag 1 true", got)
}

func TestCallInterfaceFallback(t *testing.T) {
	c := NewContext(englishGreeter{})

	f := MustCompile(func(g greeter) string {
		return g.Greet("fallback")
	})

	got, err := f.Call(t.Context(), c)

	require.NoError(t, err)
	assert.Equal(t, "hello fallback", got)
}

func TestCallReturnShapes(t *testing.T) {
	wantErr := errors.New("boom")

	tests := []struct {
		name       string
		fn         any
		wantResult string
		wantErr    error
	}{
		{name: "nothing", fn: func() {}},
		{name: "string", fn: func() string { return "ok" }, wantResult: "ok"},
		{name: "nil error", fn: func() error { return nil }},
		{name: "error", fn: func() error { return wantErr }, wantErr: wantErr},
		{name: "string and error", fn: func() (string, error) { return "partial", wantErr }, wantResult: "partial", wantErr: wantErr},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MustCompile(tc.fn).Call(t.Context(), NewContext())

			assert.Equal(t, tc.wantResult, got)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	wantErr := errors.New("wrapped")

	_, err := MustCompile(func() { panic(wantErr) }).Call(t.Context(), NewContext())

	require.ErrorIs(t, err, wantErr)
}

func TestGetAndProvide(t *testing.T) {
	c := NewContext()
	c.Provide(nil, &event{Text: "first"})
	c.Provide(&event{Text: "second"})

	e, ok := Get[*event](c)
	require.True(t, ok)
	assert.Equal(t, "second", e.Text)
	assert.Equal(t, 1, c.Len())

	_, ok = Get[*counter](c)
	assert.False(t, ok)
}

func TestFuncName(t *testing.T) {
	f := MustCompile(TestFuncName)

	assert.True(t, strings.HasSuffix(f.Name(), "inject.TestFuncName"))
	assert.Len(t, f.Params(), 1)
}
