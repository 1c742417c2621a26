package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tarunsinghofficial/visionbackend/pkg/storage"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", storage.DefaultHistoryLimit, "number of records")
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print the most recent analyses of a user as JSON",
	Long: `Print the most recent analyses of a user, newest first. Requires
storage.history to be set to postgres.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, _, logger, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	recs, err := a.History(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
