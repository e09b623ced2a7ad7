package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tcfw/votechain/internal/api"
)

var (
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "check the integrity of the chain",
		RunE:  runValidate,
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "chain summary",
		RunE:  runInfo,
	}

	blocksCmd = &cobra.Command{
		Use:   "blocks",
		Short: "list every block with its validity",
		RunE:  runBlocks,
	}

	blockCmd = &cobra.Command{
		Use:   "block [index]",
		Short: "show a single block",
		Args:  cobra.ExactArgs(1),
		RunE:  runBlock,
	}

	tamperCmd = &cobra.Command{
		Use:   "tamper [index] [text]",
		Short: "DEMO ONLY: overwrite a block payload without resealing it",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runTamper,
	}
)

func init() {
	for _, c := range []*cobra.Command{validateCmd, infoCmd, blocksCmd, blockCmd} {
		c.Flags().StringP("output", "o", outputTable, "output format: table, yaml or json")
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	r, err := c.Validate(context.Background())
	if err != nil {
		return err
	}

	if o, _ := cmd.Flags().GetString("output"); o != outputTable {
		return encode(cmd.OutOrStdout(), o, r.ValidityReport)
	}

	renderReport(cmd.OutOrStdout(), r.ValidityReport)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	info, err := c.Info(context.Background())
	if err != nil {
		return err
	}

	if o, _ := cmd.Flags().GetString("output"); o != outputTable {
		return encode(cmd.OutOrStdout(), o, info)
	}

	return renderInfo(cmd.OutOrStdout(), *info)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	resp, err := c.Blocks(context.Background())
	if err != nil {
		return err
	}

	if o, _ := cmd.Flags().GetString("output"); o != outputTable {
		return encode(cmd.OutOrStdout(), o, resp)
	}

	if err := renderBlocks(cmd.OutOrStdout(), resp.Blocks); err != nil {
		return err
	}

	renderReport(cmd.OutOrStdout(), resp.Report)
	return nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "parsing block index")
	}

	c, err := client()
	if err != nil {
		return err
	}

	b, err := c.Block(context.Background(), idx)
	if err != nil {
		return err
	}

	o, _ := cmd.Flags().GetString("output")
	if o == outputTable {
		o = outputYAML
	}

	return encode(cmd.OutOrStdout(), o, b)
}

func runTamper(cmd *cobra.Command, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "parsing block index")
	}

	c, err := client()
	if err != nil {
		return err
	}

	var req *api.TamperRequest
	if len(args) == 2 {
		req = &api.TamperRequest{Text: strings.TrimSpace(args[1])}
	}

	resp, err := c.Tamper(context.Background(), idx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (block %d, valid before: %t, valid after: %t)\n",
		resp.Message, resp.Index, resp.Details.BeforeTampering, resp.Details.AfterTampering)

	return nil
}
