package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/submitter/internal/core/domain"
)

var keysForce bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage signing keys",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate [account]",
	Short: "Generate and store a new key pair",
	Args:  cobra.MaximumNArgs(1),
	Run:   runKeysGenerate,
}

var keysShowCmd = &cobra.Command{
	Use:   "show [account]",
	Short: "Show the public key and on-chain nonce of an account",
	Args:  cobra.MaximumNArgs(1),
	Run:   runKeysShow,
}

func init() {
	keysGenerateCmd.Flags().BoolVar(&keysForce, "force", false, "overwrite an existing key")
	keysCmd.AddCommand(keysGenerateCmd, keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Account.ID
}

func runKeysGenerate(cmd *cobra.Command, args []string) {
	accountID := accountArg(args)
	ctx := context.Background()

	ks, err := openKeyStore(cfg.KeyStore)
	if err != nil {
		fatal("Failed to open keystore", err)
	}

	existing, err := ks.GetKey(ctx, cfg.Network.ID, accountID)
	if err != nil {
		fatal("Failed to read keystore", err)
	}
	if existing != nil && !keysForce {
		fatal("Key exists", fmt.Errorf("%s already has a key on %s, use --force to replace it", accountID, cfg.Network.ID))
	}

	kp, err := domain.GenerateKeyPair()
	if err != nil {
		fatal("Failed to generate key", err)
	}
	if err := ks.SetKey(ctx, cfg.Network.ID, accountID, kp); err != nil {
		fatal("Failed to store key", err)
	}
	printJSON(map[string]string{"account_id": accountID, "public_key": kp.PublicKey().String()})
}

func runKeysShow(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg.Account.ID = accountArg(args)

	a, err := newApp(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize", err)
	}
	defer a.Close()

	state, err := a.account().ResolveKey(ctx)
	if err != nil {
		a.Close()
		fatal("Failed to resolve key", err)
	}
	if state == nil {
		a.Close()
		fatal("No key", fmt.Errorf("no usable key for %s on %s", cfg.Account.ID, cfg.Network.ID))
	}
	printJSON(map[string]any{
		"account_id": cfg.Account.ID,
		"public_key": state.PublicKey.String(),
		"nonce":      state.Nonce,
	})
}
