package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/pkg/vote"
)

type Votes struct {
	ExpectedVoters uint
	FalsePositive  float64
}

const (
	Cfg_votes_expectedVoters = "votes.expectedVoters"
	Cfg_votes_falsePositive  = "votes.falsePositive"
)

var (
	votesDefaults = map[string]interface{}{
		Cfg_votes_expectedVoters: vote.DefaultExpectedVoters,
		Cfg_votes_falsePositive:  vote.DefaultFalsePositive,
	}
)

func init() {
	for k, v := range votesDefaults {
		viper.SetDefault(k, v)
	}
}

func buildVotesConfig() (*Votes, error) {
	c := &Votes{}

	c.ExpectedVoters = viper.GetUint(Cfg_votes_expectedVoters)
	c.FalsePositive = viper.GetFloat64(Cfg_votes_falsePositive)

	if c.ExpectedVoters == 0 {
		return nil, errors.Errorf("%s must be positive", Cfg_votes_expectedVoters)
	}

	return c, nil
}
