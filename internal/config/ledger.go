package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/pkg/ledger"
)

type Ledger struct {
	// DataDir is the pebble directory; empty keeps the chain in memory.
	DataDir        string
	AppendAttempts int
	AllowTamper    bool
	Genesis        ledger.Payload
}

const (
	Cfg_ledger_dataDir          = "ledger.dataDir"
	Cfg_ledger_appendAttempts   = "ledger.appendAttempts"
	Cfg_ledger_demo_allowTamper = "ledger.demo.allowTamper"
	Cfg_ledger_genesis_message  = "ledger.genesis.message"
	Cfg_ledger_genesis_system   = "ledger.genesis.system"
	Cfg_ledger_genesis_version  = "ledger.genesis.version"
)

var (
	ledgerDefaults = map[string]interface{}{
		Cfg_ledger_dataDir:          "",
		Cfg_ledger_appendAttempts:   ledger.DefaultAppendAttempts,
		Cfg_ledger_demo_allowTamper: false,
		Cfg_ledger_genesis_message:  "votechain genesis block",
		Cfg_ledger_genesis_system:   "votechain",
		Cfg_ledger_genesis_version:  "1.0.0",
	}
)

func init() {
	for k, v := range ledgerDefaults {
		viper.SetDefault(k, v)
	}
}

func buildLedgerConfig() (*Ledger, error) {
	c := &Ledger{}

	c.DataDir = viper.GetString(Cfg_ledger_dataDir)
	c.AppendAttempts = viper.GetInt(Cfg_ledger_appendAttempts)
	c.AllowTamper = viper.GetBool(Cfg_ledger_demo_allowTamper)

	if c.AppendAttempts < 1 {
		return nil, errors.Errorf("%s must be at least 1", Cfg_ledger_appendAttempts)
	}

	c.Genesis = ledger.Payload{
		Version: ledger.PayloadVersion1,
		Meta: map[string]string{
			"message": viper.GetString(Cfg_ledger_genesis_message),
			"system":  viper.GetString(Cfg_ledger_genesis_system),
			"version": viper.GetString(Cfg_ledger_genesis_version),
		},
	}

	return c, nil
}
