package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/submitter/internal/infra/storage/postgres"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [account]",
	Short: "List recorded submissions, newest first",
	Args:  cobra.MaximumNArgs(1),
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	if cfg.Database.URL == "" {
		fatal("Journal disabled", fmt.Errorf("database.url is not configured"))
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer func() {
		_ = db.Close()
	}()

	records, err := postgres.NewJournalRepo(db).ListByAccount(ctx, accountArg(args), historyLimit)
	if err != nil {
		fatal("Failed to query journal", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CREATED\tRECEIVER\tNONCE\tSTATUS\tKIND\tATTEMPTS\tTX HASH")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ReceiverID,
			r.Nonce,
			r.Status,
			r.ErrorKind,
			r.Attempts,
			r.TxHash,
		)
	}
	_ = w.Flush()
}
