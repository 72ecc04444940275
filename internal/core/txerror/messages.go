package txerror

import (
	"fmt"
	"regexp"
)

var templates = map[Kind]string{
	KindInvalidNonce:          "Transaction nonce {tx_nonce} must be larger than nonce of the used access key {ak_nonce}",
	KindExpired:               "Transaction has expired",
	KindAccountDoesNotExist:   "Can't complete the action because account {account_id} doesn't exist",
	"AccountAlreadyExists":    "Can't create a new account {account_id}, because it already exists",
	"AccessKeyNotFound":       "Signer {account_id} doesn't have access key with the given public key {public_key}",
	"NotEnoughBalance":        "Sender {signer_id} does not have enough balance {balance} for operation costing {cost}",
	"LackBalanceForState":     "The account {account_id} wouldn't have enough balance to cover storage, required to have {amount}",
	"SignerDoesNotExist":      "Signer {signer_id} does not exist",
	"InvalidSignature":        "Transaction is not signed with the given public key",
	"InvalidChain":            "Transaction parent block hash doesn't belong to the current chain",
	"CostOverflow":            "Integer overflow during a computation of the transaction cost",
	"DeleteKeyDoesNotExist":   "Account {account_id} tries to remove an access key that doesn't exist",
	"AddKeyAlreadyExists":     "The public key {public_key} is already used for an existing access key",
	"ActorNoPermission":       "Actor {actor_id} doesn't have permission to account {account_id} to complete the action",
	"TransactionSizeExceeded": "Transaction size {size} exceeds the limit {limit}",
}

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

func render(tmpl string, fields map[string]any) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := fields[name]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
}
