package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/internal/utils/logging"
)

const (
	Cfg_verbose   = "verbose"
	Cfg_logFormat = "logFormat"
)

var (
	defaults = map[string]interface{}{
		Cfg_verbose:   false,
		Cfg_logFormat: "text",
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("votechain")
	viper.AddConfigPath("/etc/votechain/")
	viper.AddConfigPath("$HOME/.votechain")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("VOTECHAIN")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logging.Entry().Debug("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	return build()
}

func build() (*Config, error) {
	var err error
	c := &Config{}

	c.ledger, err = buildLedgerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "ledger config")
	}

	c.api, err = buildAPIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "api config")
	}

	c.votes, err = buildVotesConfig()
	if err != nil {
		return nil, errors.Wrap(err, "votes config")
	}

	logging.SetFormat(viper.GetString(Cfg_logFormat))

	if viper.GetBool(Cfg_verbose) {
		logging.SetLevel(logrus.DebugLevel)
		logging.Entry().WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

type Config struct {
	ledger *Ledger
	api    *API
	votes  *Votes
}

func (c *Config) Ledger() *Ledger {
	return c.ledger
}

func (c *Config) API() *API {
	return c.api
}

func (c *Config) Votes() *Votes {
	return c.votes
}

// New assembles a Config from already built sections.
func New(l *Ledger, a *API, v *Votes) *Config {
	return &Config{ledger: l, api: a, votes: v}
}
