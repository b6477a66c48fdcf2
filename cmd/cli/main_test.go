package main

import (
	"testing"

	"lec-simulator/internal/config"
	"lec-simulator/internal/model"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFlagsToParams(t *testing.T) {
	cmd := &cobra.Command{Use: "simulate"}
	var rf runFlags
	rf.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--size", "12", "-s", "win", "--pv", "40", "--battery", "--seed", "9"}))

	cfg := config.Default()
	cfg.Seed = 3
	assert.Equal(t, model.SimulationParameters{
		CommunitySize: 12,
		Season:        model.SeasonWinter,
		PVPercentage:  40,
		WithBattery:   true,
		Seed:          9,
	}, rf.params(cmd, cfg))
	assert.Equal(t, "give every building a battery", cmd.Flags().Lookup("battery").Usage)
}

func TestRunFlagsDefaultToConfigSeed(t *testing.T) {
	cmd := &cobra.Command{Use: "simulate"}
	var rf runFlags
	rf.register(cmd)
	require.NoError(t, cmd.Flags().Parse(nil))

	cfg := config.Default()
	cfg.Seed = 3
	p := rf.params(cmd, cfg)
	assert.Equal(t, uint64(3), p.Seed)
	assert.Equal(t, 20, p.CommunitySize)
	assert.False(t, p.WithBattery)
}
