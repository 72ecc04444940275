package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vietddude/submitter/internal/core/domain"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the node's protocol parameters and latest final block",
	Args:  cobra.NoArgs,
	Run:   runNetwork,
}

func init() {
	rootCmd.AddCommand(networkCmd)
}

func runNetwork(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize", err)
	}
	defer a.Close()

	pc, err := a.client.ProtocolConfig(ctx)
	if err != nil {
		a.Close()
		fatal("Failed to fetch protocol config", err)
	}
	block, err := a.client.Block(ctx, domain.FinalityFinal)
	if err != nil {
		a.Close()
		fatal("Failed to fetch block", err)
	}
	printJSON(map[string]any{
		"chain_id":             pc.ChainID,
		"protocol_version":     pc.ProtocolVersion,
		"transaction_validity": pc.TransactionValidity,
		"final_block_height":   block.Header.Height,
		"final_block_hash":     block.Header.Hash.String(),
	})
}
