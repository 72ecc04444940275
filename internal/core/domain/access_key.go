package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// AccessKey is the on-chain record bound to a public key.
type AccessKey struct {
	Nonce      uint64              `json:"nonce"`
	Permission AccessKeyPermission `json:"permission"`
}

// AccessKeyPermission is either full access or a function call allowance.
type AccessKeyPermission struct {
	FunctionCall *FunctionCallPermission
}

// FullAccess reports whether the key may sign any action.
func (p AccessKeyPermission) FullAccess() bool {
	return p.FunctionCall == nil
}

func (p AccessKeyPermission) String() string {
	if p.FullAccess() {
		return "FullAccess"
	}
	return fmt.Sprintf("FunctionCall(%s)", p.FunctionCall.ReceiverID)
}

// FunctionCallPermission limits a key to calls on one receiver.
type FunctionCallPermission struct {
	Allowance   *big.Int // nil = unlimited
	ReceiverID  string
	MethodNames []string
}

type functionCallPermissionJSON struct {
	Allowance   *string  `json:"allowance"`
	ReceiverID  string   `json:"receiver_id"`
	MethodNames []string `json:"method_names"`
}

func (p AccessKeyPermission) MarshalJSON() ([]byte, error) {
	if p.FullAccess() {
		return json.Marshal("FullAccess")
	}
	fc := functionCallPermissionJSON{
		ReceiverID:  p.FunctionCall.ReceiverID,
		MethodNames: p.FunctionCall.MethodNames,
	}
	if p.FunctionCall.Allowance != nil {
		s := p.FunctionCall.Allowance.String()
		fc.Allowance = &s
	}
	return json.Marshal(map[string]any{"FunctionCall": fc})
}

func (p *AccessKeyPermission) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "FullAccess" {
			return fmt.Errorf("unknown access key permission %q", s)
		}
		p.FunctionCall = nil
		return nil
	}

	var wrapper struct {
		FunctionCall *functionCallPermissionJSON `json:"FunctionCall"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if wrapper.FunctionCall == nil {
		return fmt.Errorf("unknown access key permission %s", data)
	}

	fc := &FunctionCallPermission{
		ReceiverID:  wrapper.FunctionCall.ReceiverID,
		MethodNames: wrapper.FunctionCall.MethodNames,
	}
	if wrapper.FunctionCall.Allowance != nil {
		v, ok := new(big.Int).SetString(*wrapper.FunctionCall.Allowance, 10)
		if !ok {
			return fmt.Errorf("invalid allowance %q", *wrapper.FunctionCall.Allowance)
		}
		fc.Allowance = v
	}
	p.FunctionCall = fc
	return nil
}

// AccessKeyView is the node's answer to a view_access_key query.
type AccessKeyView struct {
	AccessKey
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}
