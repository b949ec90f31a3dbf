package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models [id]",
	Short: "List available models, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, cleanup, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 1 {
			model, err := client.GetModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\towned by %s\tcreated %s\n",
				model.ID, model.OwnedBy, time.Unix(model.Created, 0).UTC().Format(time.DateOnly))
			return nil
		}

		list, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tOWNED BY\tCREATED")
		for _, model := range list.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				model.ID, model.OwnedBy, time.Unix(model.Created, 0).UTC().Format(time.DateOnly))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
