package cli

import (
	"os"

	"clafootix/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRoundsCmd lists the rounds the configured oracle currently offers.
func NewRoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "List available rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(viper.GetString("config"))
			if err != nil {
				return err
			}
			b, err := buildBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			rounds, err := b.oracle.Rounds.ListAvailableRounds(cmd.Context())
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Title", "Season"})
			for _, r := range rounds {
				tw.AppendRow(table.Row{r.ID, r.Title, r.Season})
			}
			tw.AppendFooter(table.Row{"", "Total", len(rounds)})
			tw.Render()
			return nil
		},
	}
}
