package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefault(t *testing.T) {
	var cfg Config
	cfg.Default()
	assert.Equal(t, "shale", cfg.Engine)
	assert.Equal(t, DefaultSearchRoot, cfg.SearchRoot)

	cfg = Config{Engine: "custom", SearchRoot: "/opt/lib"}
	cfg.Default()
	assert.Equal(t, "custom", cfg.Engine)
	assert.Equal(t, "/opt/lib", cfg.SearchRoot)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value", cfg: Config{}, wantErr: false},
		{name: "absolute search root", cfg: Config{SearchRoot: "/src/lib"}, wantErr: false},
		{name: "relative search root", cfg: Config{SearchRoot: "src/lib"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(map[string]any{
		"engine":      "shale",
		"search_root": "/vendor/lib",
	})
	require.NoError(t, err)
	assert.Equal(t, "shale", cfg.Engine)
	assert.Equal(t, "/vendor/lib", cfg.SearchRoot)
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := DecodeConfig(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "shale", cfg.Engine)
	assert.Equal(t, DefaultSearchRoot, cfg.SearchRoot)
}

func TestDecodeConfigRejectsBadShape(t *testing.T) {
	_, err := DecodeConfig(map[string]any{"engine": []int{1, 2}})
	assert.Error(t, err)
}

func TestDecodeConfigRejectsRelativeRoot(t *testing.T) {
	_, err := DecodeConfig(map[string]any{"search_root": "relative/path"})
	assert.Error(t, err)
}
