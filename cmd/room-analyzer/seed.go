package main

import (
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Embed the furniture catalog into the vector index",
	Long: `Embed every product of the built-in furniture catalog and upsert it into
the configured vector index. Running it again replaces the same entries.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	a, cfg, logger, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	n, err := a.Seed(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("seeded %d products into %s collection %q\n", n, cfg.Index.Backend, cfg.Index.Collection)
	return nil
}
