package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"userbot/internal/core/inject"
)

type anchor struct{}

var frameworkPrefix, modulePrefix = prefixes(reflect.TypeFor[anchor]().PkgPath())

// prefixes derives the framework and module import path prefixes from the
// import path of this package, e.g. "example/internal/core/dispatch" gives
// "example/internal/core/" and "example/".
func prefixes(pkg string) (string, string) {
	framework := pkg[:strings.Index(pkg, "/core/")+len("/core/")]
	module := pkg[:strings.Index(pkg, "/internal/")+1]

	return framework, module
}

// Traceback is the truncated call stack of a failed handler: the innermost
// frame outside the Go runtime, and the innermost frame of application code.
// Either may be missing; plain errors carry no frames at all.
type Traceback struct {
	Origin      *runtime.Frame
	Application *runtime.Frame
}

// Summarize extracts the truncated traceback of a recovered panic in err.
func Summarize(err error) Traceback {
	var panicErr *inject.PanicError
	if !errors.As(err, &panicErr) {
		return Traceback{}
	}

	return summarizeFrames(panicErr.Frames)
}

func summarizeFrames(frames []runtime.Frame) Traceback {
	var tb Traceback

	for i := range frames {
		f := &frames[i]
		pkg := packageOf(f.Function)

		if tb.Origin == nil && pkg != "runtime" {
			tb.Origin = f
		}

		if tb.Application == nil && strings.HasPrefix(f.Function, modulePrefix) &&
			!strings.HasPrefix(f.Function, frameworkPrefix) {
			tb.Application = f
		}
	}

	return tb
}

func (t Traceback) String() string {
	var lines []string

	if t.Origin != nil {
		lines = append(lines, formatFrame(t.Origin))
	}

	if t.Application != nil && (t.Origin == nil || t.Application.PC != t.Origin.PC) {
		lines = append(lines, formatFrame(t.Application))
	}

	return strings.Join(lines, "\n")
}

// Describe renders err followed by the traceback, if there is one.
func (t Traceback) Describe(err error) string {
	s := t.String()
	if s == "" {
		return err.Error()
	}

	return err.Error() + "\n" + s
}

func formatFrame(f *runtime.Frame) string {
	file := f.File
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}

	return fmt.Sprintf("at %s (%s:%d)", f.Function, file, f.Line)
}

// packageOf returns the import path of a fully qualified function name.
func packageOf(function string) string {
	slash := strings.LastIndex(function, "/")
	dot := strings.Index(function[slash+1:], ".")
	if dot < 0 {
		return function
	}

	return function[:slash+1+dot]
}
