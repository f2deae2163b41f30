package config_test

import (
	"testing"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.Workers = 0
	cfg.Policy.FixedWatts = -1
	cfg.DVFS.FrequenciesMHz = nil

	err := cfg.Validate()
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 3)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	cfg, err := config.Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err) // explicit path that doesn't exist is a hard failure
	require.Nil(t, cfg)
}

func TestLoadWithNoPathSearchesStandardLocationsAndUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default().Runtime.Workers, cfg.Runtime.Workers)
}

func TestSaveWritesReadableYAML(t *testing.T) {
	cfg := config.Default()
	path := t.TempDir() + "/config.yaml"

	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Runtime.Workers, loaded.Runtime.Workers)
	require.Equal(t, cfg.DVFS.FrequenciesMHz, loaded.DVFS.FrequenciesMHz)
}
