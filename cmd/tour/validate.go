package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/chaintour/internal/termui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a catalog and check every scenario against its diagram",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			fmt.Fprintf(os.Stdout, "%s %v\n", termui.StatusIcon(false), err)
			return err
		}
		fmt.Fprintf(os.Stdout, "%s %s: %d nodes, %d edges, %d scenarios\n",
			termui.StatusIcon(true), cat.Title,
			len(cat.Graph.Nodes()), len(cat.Graph.Edges()), len(cat.Scenarios))
		return nil
	},
}
