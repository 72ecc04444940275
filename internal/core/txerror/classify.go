package txerror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const maxDepth = 32

// knownKinds is the catalogue used to recognise kinds inside opaque strings.
var knownKinds = []Kind{
	KindInvalidNonce,
	KindExpired,
	KindAccessKeyDoesNotExist,
	KindAccountDoesNotExist,
	KindUnknownTransaction,
	"AccessKeyNotFound",
	"AccountAlreadyExists",
	"ActorNoPermission",
	"AddKeyAlreadyExists",
	"CodeDoesNotExist",
	"CompilationError",
	"CostOverflow",
	"DeleteKeyDoesNotExist",
	"ExecutionError",
	"FunctionCallError",
	"GasExceeded",
	"GasLimitExceeded",
	"InsufficientStake",
	"InvalidChain",
	"InvalidReceiverId",
	"InvalidSignature",
	"InvalidSignerId",
	"LackBalanceForState",
	"MethodNotFound",
	"NotEnoughAllowance",
	"NotEnoughBalance",
	"ShardCongested",
	"ShardStuck",
	"SignerDoesNotExist",
	"TransactionSizeExceeded",
	"TriesToStake",
	"TriesToUnstake",
	"UnknownBlock",
	"DepositWithFunctionCall",
	"RequiresFullAccess",
	"MethodEmptyName",
	"MethodInvalidSignature",
	"MethodNameMismatch",
	"ReceiverMismatch",
	"InvalidAccessKeyError",
}

// messageTags carry free-form text, never a nested variant name.
var messageTags = map[string]bool{
	"ExecutionError": true,
}

// kindPatterns match catalogue names as whole words. Retryable kinds are
// left to phrasePatterns so that stray text cannot trigger a re-sign.
var kindPatterns []kindPattern

type kindPattern struct {
	re   *regexp.Regexp
	kind Kind
}

func init() {
	// Longest names first so the most specific kind wins.
	sort.SliceStable(knownKinds, func(i, j int) bool {
		return len(knownKinds[i]) > len(knownKinds[j])
	})
	for _, k := range knownKinds {
		if (&Error{Kind: k}).Retryable() {
			continue
		}
		kindPatterns = append(kindPatterns, kindPattern{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(string(k)) + `\b`),
			kind: k,
		})
	}
}

func isKnownKind(s string) bool {
	for _, k := range knownKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// phrasePatterns recognise node messages that never carry a kind name.
var phrasePatterns = []kindPattern{
	{regexp.MustCompile(`access key .* does not exist while viewing`), KindAccessKeyDoesNotExist},
	{regexp.MustCompile(`account .* does not exist while viewing`), KindAccountDoesNotExist},
	{regexp.MustCompile(`Account .* doesn't exist`), KindAccountDoesNotExist},
	{regexp.MustCompile(`Transaction nonce \d+ must be larger than nonce of the used access key \d+`), KindInvalidNonce},
	{regexp.MustCompile(`CodeDoesNotExist`), "CodeDoesNotExist"},
	{regexp.MustCompile(`Transaction has expired`), KindExpired},
}

// Classify turns a raw error payload into an Error. It accepts the legacy
// {error_message, error_type} object, a structured tagged tree, or a JSON
// string. Input that is not JSON is treated as an opaque string. Classify
// never fails.
func Classify(raw json.RawMessage) *Error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Error{Kind: KindUntyped, Message: "empty error payload"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return classifyString(string(trimmed))
	}
	return ClassifyValue(v)
}

// ClassifyValue is Classify for an already decoded value.
func ClassifyValue(v any) *Error {
	switch val := v.(type) {
	case string:
		return classifyString(val)
	case map[string]any:
		if e, ok := legacy(val); ok {
			return e
		}
		if pickTag(val) == "" {
			return &Error{Kind: KindUntyped, Message: compact(val)}
		}
		return descend(val, nil, 0)
	case nil:
		return &Error{Kind: KindUntyped, Message: "null error payload"}
	default:
		return &Error{Kind: KindUntyped, Message: fmt.Sprint(val)}
	}
}

// Legacy builds an Error straight from the historical field pair.
func Legacy(errorType, errorMessage string) *Error {
	return &Error{Kind: Kind(errorType), Message: errorMessage}
}

func legacy(m map[string]any) (*Error, bool) {
	msg, okMsg := m["error_message"].(string)
	typ, okType := m["error_type"].(string)
	if !okMsg || !okType {
		return nil, false
	}
	return Legacy(typ, msg), true
}

func descend(node map[string]any, path []string, depth int) *Error {
	if depth > maxDepth {
		return &Error{
			Kind:    KindUntyped,
			Message: fmt.Sprintf("error tree deeper than %d levels", maxDepth),
			Path:    path,
		}
	}

	tag := pickTag(node)
	if idx, ok := node["index"]; ok {
		path = append(path, fmt.Sprintf("index=%v", idx))
	}
	if acc, ok := node["account_id"].(string); ok {
		path = append(path, "account="+acc)
	}
	if tag != "kind" {
		path = append(path, tag)
	}

	switch child := node[tag].(type) {
	case map[string]any:
		if pickTag(child) != "" {
			return descend(child, path, depth+1)
		}
		return leaf(Kind(tag), child, path)
	case string:
		if tag == "kind" || (!messageTags[tag] && isKnownKind(child)) {
			return leaf(Kind(child), nil, append(path, child))
		}
		return &Error{Kind: Kind(tag), Message: child, Path: path}
	case nil:
		return leaf(Kind(tag), nil, path)
	default:
		return &Error{Kind: Kind(tag), Message: fmt.Sprint(child), Path: path}
	}
}

func leaf(kind Kind, fields map[string]any, path []string) *Error {
	e := &Error{Kind: kind, Path: path, Data: fields}
	if tmpl, ok := templates[kind]; ok {
		e.Message = render(tmpl, fields)
	} else if len(fields) > 0 {
		e.Message = compact(fields)
	} else {
		e.Message = string(kind)
	}
	return e
}

// pickTag returns the key that selects the next level of a tagged tree:
// either "kind" or a capitalised variant name.
func pickTag(m map[string]any) string {
	var tags []string
	for k := range m {
		if k == "kind" || isVariantName(k) {
			tags = append(tags, k)
		}
	}
	if len(tags) == 0 {
		return ""
	}
	sort.Strings(tags)
	return tags[0]
}

func isVariantName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func classifyString(s string) *Error {
	if strings.Contains(s, "Timeout") {
		return &Error{Kind: KindTimeout, Message: s}
	}
	for _, p := range phrasePatterns {
		if p.re.MatchString(s) {
			return &Error{Kind: p.kind, Message: s}
		}
	}
	for _, p := range kindPatterns {
		if p.re.MatchString(s) {
			return &Error{Kind: p.kind, Message: s}
		}
	}
	return &Error{Kind: KindUntyped, Message: s}
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
