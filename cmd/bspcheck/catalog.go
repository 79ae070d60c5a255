package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eqmac/buffstack/internal/spell"
)

func newCatalogCmd() *cobra.Command {
	var spellsPath string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Loads a spell catalog and prints its counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := spell.LoadCatalog(spellsPath)
			if err != nil {
				return err
			}
			var beneficial, songs, window int
			for _, sp := range cat.All() {
				if sp.Beneficial {
					beneficial++
				}
				if sp.Bardsong {
					songs++
				}
				if sp.ShortBuffBox {
					window++
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spells:      %d\n", cat.Count())
			fmt.Fprintf(out, "beneficial:  %d\n", beneficial)
			fmt.Fprintf(out, "bard songs:  %d\n", songs)
			fmt.Fprintf(out, "song window: %d\n", window)
			return nil
		},
	}
	cmd.Flags().StringVar(&spellsPath, "spells", "data/yaml/spells.yaml", "spell catalog YAML")
	return cmd
}
