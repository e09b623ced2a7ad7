package config

import (
	"github.com/spf13/viper"
)

type API struct {
	Listen  string
	Metrics bool
}

const (
	Cfg_api_listen  = "api.listen"
	Cfg_api_metrics = "api.metrics"
)

var (
	apiDefaults = map[string]interface{}{
		Cfg_api_listen:  ":8080",
		Cfg_api_metrics: true,
	}
)

func init() {
	for k, v := range apiDefaults {
		viper.SetDefault(k, v)
	}
}

func buildAPIConfig() (*API, error) {
	c := &API{}

	c.Listen = viper.GetString(Cfg_api_listen)
	c.Metrics = viper.GetBool(Cfg_api_metrics)

	return c, nil
}
