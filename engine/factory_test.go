package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shale-lang/shale/engine"
	_ "github.com/shale-lang/shale/engine/shalevm"
)

func TestNewDefaultsToReferenceVM(t *testing.T) {
	s, err := engine.New("", nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := engine.New("no-such-engine", nil)
	assert.ErrorIs(t, err, engine.ErrEngineNotFound)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	engine.Register("duplicate-test", func(config any) (engine.State, error) {
		return nil, nil
	})
	assert.Panics(t, func() {
		engine.Register("duplicate-test", func(config any) (engine.State, error) {
			return nil, nil
		})
	})
}

func TestList(t *testing.T) {
	assert.Contains(t, engine.List(), "shale")
}
