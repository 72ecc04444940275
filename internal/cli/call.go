package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/submitter/internal/core/domain"
)

const defaultGas = 30_000_000_000_000

var (
	callArgs    string
	callGas     uint64
	callDeposit string
)

var callCmd = &cobra.Command{
	Use:   "call [receiver] [method]",
	Short: "Call a contract method as the configured account",
	Args:  cobra.ExactArgs(2),
	Run:   runCall,
}

func init() {
	callCmd.Flags().StringVar(&callArgs, "args", "{}", "JSON arguments")
	callCmd.Flags().Uint64Var(&callGas, "gas", defaultGas, "attached gas")
	callCmd.Flags().StringVar(&callDeposit, "deposit", "0", "attached deposit in yocto")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) {
	if !json.Valid([]byte(callArgs)) {
		fatal("Invalid arguments", fmt.Errorf("--args is not valid JSON"))
	}
	deposit, err := parseAmount(callDeposit)
	if err != nil {
		fatal("Invalid deposit", err)
	}

	req := domain.SubmitRequest{
		ReceiverID: args[0],
		Actions: []domain.Action{domain.FunctionCall{
			MethodName: args[1],
			Args:       []byte(callArgs),
			Gas:        callGas,
			Deposit:    deposit,
		}},
	}
	submitAll(req, 1, false)
}
