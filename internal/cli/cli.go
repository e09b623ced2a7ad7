package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tcfw/votechain/internal/api"
)

const (
	defaultDaemonAddr = "http://127.0.0.1:8080"
)

var (
	rootCmd = &cobra.Command{
		Use:          "votechain",
		Short:        "tamper-evident vote ledger",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().String("daemon-addr", defaultDaemonAddr, "daemon api address")
	viper.BindPFlag("daemon_addr", rootCmd.PersistentFlags().Lookup("daemon-addr"))

	regCommands()
}

func Execute() error {
	return rootCmd.Execute()
}

func client() (*api.Client, error) {
	return api.NewClient(viper.GetString("daemon_addr"))
}

func waitExit() <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}
