package domain

import "math/big"

// ActionKind is the wire discriminant of an action.
type ActionKind uint8

const (
	ActionCreateAccount ActionKind = iota
	ActionDeployContract
	ActionFunctionCall
	ActionTransfer
	ActionStake
	ActionAddKey
	ActionDeleteKey
	ActionDeleteAccount
)

// Action is one step of a transaction.
type Action interface {
	Kind() ActionKind
}

type CreateAccount struct{}

type DeployContract struct {
	Code []byte
}

type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *big.Int
}

type Transfer struct {
	Deposit *big.Int
}

type Stake struct {
	Stake     *big.Int
	PublicKey PublicKey
}

type AddKey struct {
	PublicKey PublicKey
	AccessKey AccessKey
}

type DeleteKey struct {
	PublicKey PublicKey
}

type DeleteAccount struct {
	BeneficiaryID string
}

func (CreateAccount) Kind() ActionKind  { return ActionCreateAccount }
func (DeployContract) Kind() ActionKind { return ActionDeployContract }
func (FunctionCall) Kind() ActionKind   { return ActionFunctionCall }
func (Transfer) Kind() ActionKind       { return ActionTransfer }
func (Stake) Kind() ActionKind          { return ActionStake }
func (AddKey) Kind() ActionKind         { return ActionAddKey }
func (DeleteKey) Kind() ActionKind      { return ActionDeleteKey }
func (DeleteAccount) Kind() ActionKind  { return ActionDeleteAccount }

func (k ActionKind) String() string {
	switch k {
	case ActionCreateAccount:
		return "CreateAccount"
	case ActionDeployContract:
		return "DeployContract"
	case ActionFunctionCall:
		return "FunctionCall"
	case ActionTransfer:
		return "Transfer"
	case ActionStake:
		return "Stake"
	case ActionAddKey:
		return "AddKey"
	case ActionDeleteKey:
		return "DeleteKey"
	case ActionDeleteAccount:
		return "DeleteAccount"
	default:
		return "Unknown"
	}
}
