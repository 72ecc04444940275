package txerror

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RPCError is the JSON-RPC error object returned by a node.
type RPCError struct {
	Name    string          `json:"name,omitempty"`
	Cause   *RPCErrorCause  `json:"cause,omitempty"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RPCErrorCause is the structured cause attached by newer nodes.
type RPCErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info,omitempty"`
}

var causeKinds = map[string]Kind{
	"TIMEOUT_ERROR":       KindTimeout,
	"UNKNOWN_ACCESS_KEY":  KindAccessKeyDoesNotExist,
	"UNKNOWN_ACCOUNT":     KindAccountDoesNotExist,
	"UNKNOWN_TRANSACTION": KindUnknownTransaction,
	"UNKNOWN_BLOCK":       "UnknownBlock",
}

// FromRPCError classifies a node's JSON-RPC error object.
func FromRPCError(rpcErr *RPCError) *Error {
	data := bytes.TrimSpace(rpcErr.Data)

	if len(data) > 0 && data[0] == '{' {
		return Classify(data)
	}

	var dataText string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &dataText); err != nil {
			dataText = string(data)
		}
	}

	msg := fmt.Sprintf("[%d] %s", rpcErr.Code, rpcErr.Message)
	if dataText != "" {
		msg += ": " + dataText
	}

	if rpcErr.Cause != nil {
		if kind := causeKinds[rpcErr.Cause.Name]; kind != "" {
			return &Error{Kind: kind, Message: msg}
		}
	}
	if dataText == "Timeout" {
		return &Error{Kind: KindTimeout, Message: msg}
	}

	e := classifyString(msg)
	e.Message = msg
	return e
}
