package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/internal/api"
	"github.com/tcfw/votechain/pkg/vote"
)

const (
	cfgVoterSalt = "votes.voterSalt"
)

var (
	voteCmd = &cobra.Command{
		Use:   "vote",
		Short: "cast a ballot",
		RunE:  runVote,
	}

	resultsCmd = &cobra.Command{
		Use:   "results [poll]",
		Short: "tally a poll from trusted blocks",
		Args:  cobra.ExactArgs(1),
		RunE:  runResults,
	}
)

func init() {
	voteCmd.Flags().String("poll", "", "poll id")
	voteCmd.Flags().String("choice", "", "selected option")
	voteCmd.Flags().String("national-code", "", "voter national code, hashed before leaving this process")
	voteCmd.Flags().String("voter-hash", "", "pre-hashed voter id")

	voteCmd.Flags().String("salt", "", "salt used to hash the national code")
	viper.BindPFlag(cfgVoterSalt, voteCmd.Flags().Lookup("salt"))
}

func runVote(cmd *cobra.Command, args []string) error {
	poll, _ := cmd.Flags().GetString("poll")
	choice, _ := cmd.Flags().GetString("choice")
	voter, _ := cmd.Flags().GetString("voter-hash")

	if code, _ := cmd.Flags().GetString("national-code"); code != "" {
		voter = vote.HashVoterIdentity(viper.GetString(cfgVoterSalt), code)
	}

	if voter == "" {
		return errors.New("one of --national-code or --voter-hash is required")
	}

	c, err := client()
	if err != nil {
		return err
	}

	resp, err := c.Cast(context.Background(), &api.CastRequest{
		PollID:    poll,
		VoterHash: voter,
		Choice:    choice,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ballot sealed in block %d (%s)\n", resp.Block.Index, resp.Block.ShortDigest)

	return nil
}

func runResults(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	res, err := c.Results(context.Background(), args[0])
	if err != nil {
		return err
	}

	return renderResults(cmd.OutOrStdout(), *res)
}
