package cli

import (
	"io"
	"strings"

	"github.com/google/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var log *logger.Logger

	cmd := &cobra.Command{
		Use:           "clafootix",
		Short:         "Carrière Infernale round service over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.Init("clafootix", viper.GetBool("verbose"), false, io.Discard)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				log.Close()
			}
		},
	}

	viper.SetEnvPrefix("CLAFOOTIX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("config", "config/config.yaml")

	cmd.PersistentFlags().String("config", "config/config.yaml", "path to YAML config")
	cmd.PersistentFlags().String("port", "", "port to listen on (overrides config)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log to stdout")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(NewStartCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewRoundsCmd())
	return cmd
}
