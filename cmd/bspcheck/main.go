// Command bspcheck inspects spell catalogs and replays buff stacking
// decisions offline against a character fixture.
//
// For CLI usage instructions:
//
//	bspcheck --help
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bspcheck",
		Short:         "Checks spell data and buff slot decisions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCatalogCmd(), newResolveCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bspcheck: %v\n", err)
		os.Exit(1)
	}
}
