package interp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shale-lang/shale/engine"
	_ "github.com/shale-lang/shale/engine/shalevm"
	"github.com/shale-lang/shale/interp"
)

// counterValue reads the global the loader test scripts bump on execution.
func counterValue(t *testing.T, i *interp.Interpreter) int64 {
	t.Helper()
	value, err := i.Eval([]byte("$counter"))
	require.NoError(t, err)
	n, err := value.TryInt()
	require.NoError(t, err)
	return n
}

func setupCounter(t *testing.T, i *interp.Interpreter) {
	t.Helper()
	_, err := i.Eval([]byte("$counter = 0"))
	require.NoError(t, err)
	require.NoError(t, i.DefineScriptSource("counter.rb", []byte("$counter = $counter + 1")))
}

func TestRequireExecutesOnce(t *testing.T) {
	i := newInterpreter(t)
	setupCounter(t, i)

	executed, err := i.Require("counter")
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, int64(1), counterValue(t, i))

	executed, err = i.Require("counter")
	require.NoError(t, err)
	assert.False(t, executed)
	assert.Equal(t, int64(1), counterValue(t, i))

	assert.True(t, i.SourceRequired("counter"))
}

func TestRequireResolvesExtensionVariants(t *testing.T) {
	i := newInterpreter(t)
	setupCounter(t, i)

	// All spellings resolve to the same registered source.
	executed, err := i.Require("counter.rb")
	require.NoError(t, err)
	assert.True(t, executed)

	executed, err = i.Require("counter")
	require.NoError(t, err)
	assert.False(t, executed)

	executed, err = i.Require("/src/lib/counter.rb")
	require.NoError(t, err)
	assert.False(t, executed)

	assert.Equal(t, int64(1), counterValue(t, i))
}

func TestLoadAlwaysExecutes(t *testing.T) {
	i := newInterpreter(t)
	setupCounter(t, i)

	require.NoError(t, i.Load("counter"))
	require.NoError(t, i.Load("counter"))
	assert.Equal(t, int64(2), counterValue(t, i))

	// Load never marks the source satisfied.
	executed, err := i.Require("counter")
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, int64(3), counterValue(t, i))
}

func TestRequireMissingSource(t *testing.T) {
	i := newInterpreter(t)

	_, err := i.Require("missing")
	var cannotLoad *interp.CannotLoadError
	require.ErrorAs(t, err, &cannotLoad)
	assert.Equal(t, "missing", cannotLoad.Name)
	assert.Equal(t, "cannot load such file -- missing", cannotLoad.Error())

	err = i.Load("missing")
	assert.ErrorAs(t, err, &cannotLoad)
}

func TestRequireRelative(t *testing.T) {
	i := newInterpreter(t)
	_, err := i.Eval([]byte("$counter = 0"))
	require.NoError(t, err)
	require.NoError(t, i.DefineScriptSource("/app/helpers/util.rb", []byte("$counter = $counter + 1")))

	i.PushContext(interp.NewContext("/app/helpers/main.rb"))
	defer i.PopContext()

	executed, err := i.RequireRelative("util")
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, int64(1), counterValue(t, i))

	// Bare Require resolves against the search root, not the context.
	_, err = i.Require("util")
	var cannotLoad *interp.CannotLoadError
	assert.ErrorAs(t, err, &cannotLoad)
}

func TestRequireScriptFailureIsRetryable(t *testing.T) {
	i := newInterpreter(t)
	setupCounter(t, i)
	require.NoError(t, i.DefineScriptSource("fragile.rb", []byte("raise 'not ready'")))

	_, err := i.Require("fragile")
	var exc *interp.Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "not ready", string(exc.Message))
	assert.False(t, i.SourceRequired("fragile"))

	// Replacing the script makes a retry succeed.
	require.NoError(t, i.DefineScriptSource("fragile.rb", []byte("$counter = $counter + 1")))
	executed, err := i.Require("fragile")
	require.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, int64(1), counterValue(t, i))
}

func TestRequireNativeInitializerFailure(t *testing.T) {
	i := newInterpreter(t)

	broken := true
	require.NoError(t, i.DefineNativeSource("flaky", func(i *interp.Interpreter) error {
		if broken {
			return errors.New("hardware on fire")
		}
		return nil
	}))

	_, err := i.Require("flaky")
	var fatal *interp.LoadFatalError
	require.ErrorAs(t, err, &fatal)
	assert.False(t, i.SourceRequired("flaky"))

	broken = false
	executed, err := i.Require("flaky")
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestRequireRunsNativeBeforeScript(t *testing.T) {
	i := newInterpreter(t)

	name := "hybrid"
	require.NoError(t, i.DefineNativeSource(name, func(i *interp.Interpreter) error {
		return i.DefineNativeMethod("hybrid_native", func(s engine.State, args []engine.Value) engine.Value {
			return s.NewString([]byte("from native"))
		})
	}))
	require.NoError(t, i.DefineScriptSource(name, []byte("$hybrid = hybrid_native")))

	executed, err := i.Require(name)
	require.NoError(t, err)
	assert.True(t, executed)

	value, err := i.Eval([]byte("$hybrid"))
	require.NoError(t, err)
	s, err := value.TryString()
	require.NoError(t, err)
	assert.Equal(t, "from native", s)
}

func TestRequiredSourceReportsItsFilename(t *testing.T) {
	i := newInterpreter(t)
	require.NoError(t, i.DefineScriptSource("whereami.rb", []byte("$file = __FILE__")))

	_, err := i.Require("whereami")
	require.NoError(t, err)

	value, err := i.Eval([]byte("$file"))
	require.NoError(t, err)
	s, err := value.TryString()
	require.NoError(t, err)
	assert.Equal(t, "/src/lib/whereami.rb", s)
}
