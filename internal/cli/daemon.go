package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/internal/api"
	"github.com/tcfw/votechain/internal/config"
	"github.com/tcfw/votechain/internal/node"
	"github.com/tcfw/votechain/internal/utils/logging"
)

var (
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		RunE:  runDaemon,
		Short: "run the ledger and its http api",
	}
)

func init() {
	daemonCmd.Flags().String("listen", "", "api listen address (overrides api.listen)")
	viper.BindPFlag(config.Cfg_api_listen, daemonCmd.Flags().Lookup("listen"))

	daemonCmd.Flags().String("data-dir", "", "ledger data directory (overrides ledger.dataDir)")
	viper.BindPFlag(config.Cfg_ledger_dataDir, daemonCmd.Flags().Lookup("data-dir"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := node.NewNode(ctx, node.WithLogger(logging.WithField("component", "daemon")))
	if err != nil {
		return errors.Wrap(err, "initing node")
	}

	api, err := api.NewAPI(node)
	if err != nil {
		node.Stop()
		return err
	}

	errCh := make(chan error, 1)

	go func() {
		if err := api.ListenAndServe(node.Config().API().Listen); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		node.Stop()
		return err
	case <-waitExit():
	}

	sctx, scancel := context.WithTimeout(ctx, 10*time.Second)
	defer scancel()

	if err := api.Shutdown(sctx); err != nil {
		node.Stop()
		return errors.Wrap(err, "shutting down api")
	}

	return node.Stop()
}
