package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"git.fiblab.net/sim/wayfinding/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 1500, cfg.Agents())
	assert.Equal(t, 14.0, cfg.Learning.HalfLifeDays)
	assert.Equal(t, 80.0, cfg.Movement.CrowdingPercentile)
	assert.InDelta(t, 85.2, cfg.MoveRate(), 1e-9)
	assert.Equal(t, 1440, cfg.StepsPerDay())
	assert.Equal(t, 15, cfg.MinutesToSteps(15))
	assert.Len(t, cfg.Time.HourlyProfile, 24)
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	content := []byte("simulation:\n  num_agents: 12\nmovement:\n  crowding_percentile: 90\n")
	require.NoError(t, os.WriteFile(file, content, 0o644))

	cfg, err := config.Load(file)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Agents())
	assert.Equal(t, 90.0, cfg.Movement.CrowdingPercentile)
	// 未覆盖的值保持默认
	assert.Equal(t, 0.15, cfg.Learning.MemoryPercentile)
}

func TestLoadInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(file, []byte("time:\n  step_duration: 0\n"), 0o644))
	_, err := config.Load(file)
	assert.ErrorIs(t, err, config.ErrInvalidStepDuration)
}
