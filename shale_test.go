package shale_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	shale "github.com/shale-lang/shale"
	"github.com/shale-lang/shale/interp"
)

func newInterpreter(t *testing.T, out *bytes.Buffer) *interp.Interpreter {
	t.Helper()
	i, err := shale.New(
		interp.WithLogger(zaptest.NewLogger(t)),
		interp.WithOutput(out),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = i.Close() })
	return i
}

func TestStandardExtensionsInstalled(t *testing.T) {
	var out bytes.Buffer
	i := newInterpreter(t, &out)

	_, err := i.Eval([]byte("puts Integer('0x10')"))
	require.NoError(t, err)
	assert.Equal(t, "16\n", out.String())

	value, err := i.Eval([]byte("SecureRandom.hex(8)"))
	require.NoError(t, err)
	s, err := value.TryString()
	require.NoError(t, err)
	assert.Len(t, s, 16)
}

func TestScriptedApplication(t *testing.T) {
	var out bytes.Buffer
	i := newInterpreter(t, &out)

	require.NoError(t, i.DefineScriptSource("config.rb", []byte("$greeting = 'hello'")))
	require.NoError(t, i.DefineScriptSource("app.rb", []byte(
		"require 'config'\nputs $greeting + ', ' + $name",
	)))

	_, err := i.Eval([]byte("$name = 'world'"))
	require.NoError(t, err)

	executed, err := i.Require("app")
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, "hello, world\n", out.String())

	// A second require of either file is a no-op.
	executed, err = i.Require("app")
	require.NoError(t, err)
	assert.False(t, executed)
	assert.Equal(t, "hello, world\n", out.String())
}

func TestUserExtensionsSeeStandardLibrary(t *testing.T) {
	var out bytes.Buffer
	sawKernel := false
	ext := func(i *interp.Interpreter) error {
		// Standard extensions are installed before user ones run.
		_, err := i.Eval([]byte("puts 'from extension'"))
		sawKernel = err == nil
		return err
	}
	i, err := shale.New(
		interp.WithLogger(zaptest.NewLogger(t)),
		interp.WithOutput(&out),
		interp.WithExtensions(ext),
	)
	require.NoError(t, err)
	defer i.Close()

	assert.True(t, sawKernel)
	assert.Equal(t, "from extension\n", out.String())
}

func TestErrorReportingEndToEnd(t *testing.T) {
	var out bytes.Buffer
	i := newInterpreter(t, &out)

	require.NoError(t, i.DefineScriptSource("faulty.rb", []byte("def crash\nraise 'on line 2'\nend\ncrash")))

	_, err := i.Require("faulty")
	var exc *interp.Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "RuntimeError", exc.Class)
	assert.Equal(t,
		"/src/lib/faulty.rb:2: on line 2 (RuntimeError)\n/src/lib/faulty.rb:2\n/src/lib/faulty.rb:4",
		exc.Error())

	// The failed require is retryable and the interpreter unharmed.
	value, err := i.Eval([]byte("'a' * 10"))
	require.NoError(t, err)
	s, err := value.TryString()
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaa", s)
}
