package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestBuildDefaults(t *testing.T) {
	c, err := build()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "", c.Ledger().DataDir)
	assert.Equal(t, 5, c.Ledger().AppendAttempts)
	assert.False(t, c.Ledger().AllowTamper)
	assert.Equal(t, "votechain", c.Ledger().Genesis.Meta["system"])
	assert.Equal(t, ":8080", c.API().Listen)
	assert.True(t, c.API().Metrics)
	assert.Equal(t, uint(100000), c.Votes().ExpectedVoters)
}

func TestBuildOverrides(t *testing.T) {
	viper.Set(Cfg_ledger_demo_allowTamper, true)
	viper.Set(Cfg_ledger_genesis_message, "election 2024")
	defer viper.Set(Cfg_ledger_demo_allowTamper, false)
	defer viper.Set(Cfg_ledger_genesis_message, "votechain genesis block")

	c, err := build()
	if err != nil {
		t.Fatal(err)
	}

	assert.True(t, c.Ledger().AllowTamper)
	assert.Equal(t, "election 2024", c.Ledger().Genesis.Meta["message"])
}

func TestBuildRejectsZeroAttempts(t *testing.T) {
	viper.Set(Cfg_ledger_appendAttempts, 0)
	defer viper.Set(Cfg_ledger_appendAttempts, 5)

	_, err := build()
	assert.Error(t, err)
}
