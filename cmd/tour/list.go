package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/chaintour/internal/termui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}

		termui.Banner(os.Stdout, cat.Title, "scenarios")
		rows := make([][]string, 0, len(cat.Scenarios))
		for _, s := range cat.Scenarios {
			rows = append(rows, []string{
				s.ID,
				strconv.Itoa(len(s.Steps)),
				s.TotalDuration().String(),
				s.Title,
			})
		}
		termui.Table(os.Stdout, []string{"ID", "STEPS", "DURATION", "TITLE"}, rows)
		return nil
	},
}
