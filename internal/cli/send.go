package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/submitter/internal/core/domain"
)

var (
	sendRepeat int
	sendAsync  bool
)

var sendCmd = &cobra.Command{
	Use:   "send [receiver] [amount_yocto]",
	Short: "Transfer tokens from the configured account",
	Args:  cobra.ExactArgs(2),
	Run:   runSend,
}

func init() {
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "submit the transfer this many times concurrently")
	sendCmd.Flags().BoolVar(&sendAsync, "async", false, "broadcast without waiting for execution and print the hash")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) {
	amount, err := parseAmount(args[1])
	if err != nil {
		fatal("Invalid amount", err)
	}
	if sendRepeat < 1 {
		fatal("Invalid repeat", fmt.Errorf("repeat must be at least 1, got %d", sendRepeat))
	}

	req := domain.SubmitRequest{
		ReceiverID: args[0],
		Actions:    []domain.Action{domain.Transfer{Deposit: amount}},
	}
	submitAll(req, sendRepeat, sendAsync)
}

// submitAll sends req n times concurrently through one engine and prints
// every result. With async set only the hashes are printed. It exits
// non-zero if any submission failed.
func submitAll(req domain.SubmitRequest, n int, async bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize", err)
	}
	defer a.Close()

	account := a.account()
	results := make([]any, n)
	failed := make([]bool, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if async {
				hash, err := account.Broadcast(ctx, req)
				if err != nil {
					results[i] = viewError(err)
					failed[i] = true
					return nil
				}
				results[i] = broadcastView{TransactionHash: hash}
				return nil
			}
			out, err := account.SignAndSend(ctx, req)
			if err != nil {
				results[i] = viewError(err)
				failed[i] = true
				return nil
			}
			results[i] = viewOutcome(out)
			return nil
		})
	}
	_ = g.Wait()

	exit := 0
	for i, r := range results {
		printJSON(r)
		if failed[i] {
			exit = 1
		}
	}
	if exit != 0 {
		slog.Error("Submission failed", "receiver", req.ReceiverID)
		a.Close()
		os.Exit(exit)
	}
}

type broadcastView struct {
	TransactionHash string `json:"transaction_hash"`
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return v, nil
}
