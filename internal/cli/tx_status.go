package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vietddude/submitter/internal/core/domain"
)

var txSender string

var txStatusCmd = &cobra.Command{
	Use:   "tx-status [hash]",
	Short: "Show the final outcome of a transaction",
	Args:  cobra.ExactArgs(1),
	Run:   runTxStatus,
}

func init() {
	txStatusCmd.Flags().StringVar(&txSender, "sender", "", "signer of the transaction (default is the configured account)")
	rootCmd.AddCommand(txStatusCmd)
}

func runTxStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize", err)
	}
	defer a.Close()

	sender := txSender
	if sender == "" {
		sender = cfg.Account.ID
	}

	out, err := a.client.TxStatus(ctx, args[0], sender)
	if err != nil {
		printJSON(viewError(err))
		a.Close()
		fatal("Failed to fetch transaction", err)
	}

	status := domain.OutcomeSuccess
	if out.Status.Failed() {
		status = domain.OutcomeFailure
	}
	printJSON(map[string]any{
		"transaction_hash": out.Transaction.Hash,
		"signer_id":        out.Transaction.SignerID,
		"receiver_id":      out.Transaction.ReceiverID,
		"status":           status,
		"outcome":          out.Raw,
	})
}
