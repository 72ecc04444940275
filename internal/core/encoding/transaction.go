package encoding

import (
	"crypto/sha256"
	"fmt"

	"github.com/vietddude/submitter/internal/core/domain"
)

// EncodeTransaction returns the canonical bytes of tx.
func EncodeTransaction(tx *domain.Transaction) ([]byte, error) {
	var w Writer
	writeTransaction(&w, tx)
	return w.Result()
}

// HashTransaction returns the canonical bytes of tx and their sha256.
func HashTransaction(tx *domain.Transaction) ([]byte, domain.CryptoHash, error) {
	b, err := EncodeTransaction(tx)
	if err != nil {
		return nil, domain.CryptoHash{}, err
	}
	return b, sha256.Sum256(b), nil
}

// EncodeSignedTransaction returns the bytes submitted to the node.
func EncodeSignedTransaction(st *domain.SignedTransaction) ([]byte, error) {
	var w Writer
	writeTransaction(&w, &st.Transaction)
	w.U8(uint8(st.Signature.Type))
	if len(st.Signature.Data) != 64 {
		w.fail(fmt.Errorf("invalid signature length %d", len(st.Signature.Data)))
	}
	w.Fixed(st.Signature.Data)
	return w.Result()
}

func writeTransaction(w *Writer, tx *domain.Transaction) {
	w.Text(tx.SignerID)
	writePublicKey(w, tx.PublicKey)
	w.U64(tx.Nonce)
	w.Text(tx.ReceiverID)
	w.Fixed(tx.BlockHash[:])
	w.U32(uint32(len(tx.Actions)))
	for _, a := range tx.Actions {
		writeAction(w, a)
	}
}

func writePublicKey(w *Writer, pk domain.PublicKey) {
	w.U8(uint8(pk.Type))
	w.Fixed(pk.Data[:])
}

func writeAction(w *Writer, a domain.Action) {
	w.U8(uint8(a.Kind()))
	switch act := a.(type) {
	case domain.CreateAccount:
	case domain.DeployContract:
		w.Bytes(act.Code)
	case domain.FunctionCall:
		w.Text(act.MethodName)
		w.Bytes(act.Args)
		w.U64(act.Gas)
		w.U128(act.Deposit)
	case domain.Transfer:
		w.U128(act.Deposit)
	case domain.Stake:
		w.U128(act.Stake)
		writePublicKey(w, act.PublicKey)
	case domain.AddKey:
		writePublicKey(w, act.PublicKey)
		writeAccessKey(w, act.AccessKey)
	case domain.DeleteKey:
		writePublicKey(w, act.PublicKey)
	case domain.DeleteAccount:
		w.Text(act.BeneficiaryID)
	default:
		w.fail(fmt.Errorf("unsupported action %T", a))
	}
}

func writeAccessKey(w *Writer, ak domain.AccessKey) {
	w.U64(ak.Nonce)
	if ak.Permission.FullAccess() {
		w.U8(1)
		return
	}
	fc := ak.Permission.FunctionCall
	w.U8(0)
	w.Bool(fc.Allowance != nil)
	if fc.Allowance != nil {
		w.U128(fc.Allowance)
	}
	w.Text(fc.ReceiverID)
	w.U32(uint32(len(fc.MethodNames)))
	for _, m := range fc.MethodNames {
		w.Text(m)
	}
}
