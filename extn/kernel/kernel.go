// Package kernel implements the global methods scripts use to pull in other
// sources and produce output: require, require_relative, load, puts, print,
// warn, and Integer.
package kernel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shale-lang/shale/engine"
	"github.com/shale-lang/shale/interp"
)

// Init registers the kernel methods on i. It is meant to be passed to
// interp.WithExtensions.
func Init(i *interp.Interpreter) error {
	methods := map[string]engine.NativeFunc{
		"require":          requireFunc(i),
		"require_relative": requireRelativeFunc(i),
		"load":             loadFunc(i),
		"puts":             putsFunc(i),
		"print":            printFunc(i),
		"warn":             warnFunc(i),
		"Integer":          integerFunc(i),
	}
	for name, fn := range methods {
		if err := i.DefineNativeMethod(name, fn); err != nil {
			return fmt.Errorf("kernel: define %s: %w", name, err)
		}
	}
	return nil
}

func requireFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		name, err := pathArg(s, args)
		if err != nil {
			raiseLoadFailure(s, name, err)
		}
		executed, err := i.Require(name)
		if err != nil {
			raiseLoadFailure(s, name, err)
		}
		return engine.Bool(executed)
	}
}

func requireRelativeFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		name, err := pathArg(s, args)
		if err != nil {
			raiseLoadFailure(s, name, err)
		}
		executed, err := i.RequireRelative(name)
		if err != nil {
			raiseLoadFailure(s, name, err)
		}
		return engine.Bool(executed)
	}
}

func loadFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		name, err := pathArg(s, args)
		if err != nil {
			raiseLoadFailure(s, name, err)
		}
		if err := i.Load(name); err != nil {
			raiseLoadFailure(s, name, err)
		}
		return engine.Bool(true)
	}
}

func putsFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		out := i.Output()
		if len(args) == 0 {
			fmt.Fprintln(out)
			return engine.Nil()
		}
		for _, arg := range args {
			line := s.DisplayString(arg)
			if !bytes.HasSuffix(line, []byte("\n")) {
				line = append(line, '\n')
			}
			out.Write(line)
		}
		return engine.Nil()
	}
}

func warnFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		out := i.ErrorOutput()
		for _, arg := range args {
			line := s.DisplayString(arg)
			if !bytes.HasSuffix(line, []byte("\n")) {
				line = append(line, '\n')
			}
			out.Write(line)
		}
		return engine.Nil()
	}
}

func printFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		out := i.Output()
		for _, arg := range args {
			out.Write(s.DisplayString(arg))
		}
		return engine.Nil()
	}
}

// pathArg extracts the single string argument the loading methods take. A
// value that cannot be coerced is reported as an ArgumentConversionError for
// raiseLoadFailure to map back into the script.
func pathArg(s engine.State, args []engine.Value) (string, error) {
	if len(args) != 1 {
		raise(s, "ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 1)", len(args)))
	}
	if args[0].Tag != engine.TagString {
		return "", &interp.ArgumentConversionError{Class: classOf(s, args[0])}
	}
	contents, err := s.StringContents(args[0])
	if err != nil {
		return "", &interp.ArgumentConversionError{}
	}
	return string(contents), nil
}

// raiseLoadFailure maps loader errors back into script-visible exceptions.
// Exceptions raised by the loaded code itself are re-raised with their
// original class and message.
func raiseLoadFailure(s engine.State, name string, err error) {
	var exc *interp.Exception
	if errors.As(err, &exc) {
		raise(s, exc.Class, string(exc.Message))
	}
	var conv *interp.ArgumentConversionError
	if errors.As(err, &conv) {
		raise(s, "TypeError", conv.Error())
	}
	var cannotLoad *interp.CannotLoadError
	if errors.As(err, &cannotLoad) {
		raise(s, "LoadError", cannotLoad.Error())
	}
	raise(s, "RuntimeError", fmt.Sprintf("failed to load %s", name))
}

// raise allocates an exception and unwinds the VM with it. It never returns.
func raise(s engine.State, class, message string) {
	exc, err := s.NewException(class, []byte(message))
	if err != nil {
		panic(err)
	}
	s.Raise(exc)
}

func classOf(s engine.State, v engine.Value) string {
	name, err := s.ClassName(v)
	if err != nil {
		return "Object"
	}
	return name
}
