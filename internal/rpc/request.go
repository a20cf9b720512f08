package rpc

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

// GenericCorrelation is the correlation id of a single-call batch.
const GenericCorrelation = "generic"

// Batch is an ordered set of calls sent in one POST. All calls share one
// source path.
type Batch struct {
	calls []domain.EncodedCall
}

func NewBatch(calls ...domain.EncodedCall) (Batch, error) {
	if len(calls) == 0 {
		return Batch{}, errors.New("batch has no calls")
	}
	path := calls[0].SourcePath
	for _, call := range calls {
		if call.MethodCode == "" {
			return Batch{}, errors.New("batch call has no method code")
		}
		if call.SourcePath != path {
			return Batch{}, fmt.Errorf("batch mixes source paths %q and %q", path, call.SourcePath)
		}
	}
	copied := make([]domain.EncodedCall, len(calls))
	copy(copied, calls)
	return Batch{calls: copied}, nil
}

func (b Batch) Len() int { return len(b.calls) }

func (b Batch) Call(i int) domain.EncodedCall { return b.calls[i] }

// CorrelationID is "generic" for a lone call and the 1-based position
// otherwise.
func (b Batch) CorrelationID(i int) string {
	if len(b.calls) == 1 {
		return GenericCorrelation
	}
	return strconv.Itoa(i + 1)
}

// RPCIDs is the comma joined list of distinct method codes in call order.
func (b Batch) RPCIDs() string {
	seen := make(map[string]struct{}, len(b.calls))
	ids := make([]string, 0, len(b.calls))
	for _, call := range b.calls {
		if _, ok := seen[call.MethodCode]; ok {
			continue
		}
		seen[call.MethodCode] = struct{}{}
		ids = append(ids, call.MethodCode)
	}
	return strings.Join(ids, ",")
}

func (b Batch) SourcePath() string {
	if len(b.calls) == 0 || b.calls[0].SourcePath == "" {
		return "/"
	}
	return b.calls[0].SourcePath
}

// FReq renders the f.req envelope: [[[code, "<params json>", null, corr], ...]].
func (b Batch) FReq() (string, error) {
	inner := make([]any, 0, len(b.calls))
	for i, call := range b.calls {
		params := call.Params
		if params == nil {
			params = []any{}
		}
		encoded, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("encode params for %s: %w", call.MethodCode, err)
		}
		inner = append(inner, []any{call.MethodCode, string(encoded), nil, b.CorrelationID(i)})
	}

	envelope, err := json.Marshal([]any{inner})
	if err != nil {
		return "", fmt.Errorf("encode request envelope: %w", err)
	}
	return string(envelope), nil
}

// FormBody builds the urlencoded body. The trailing separator matches what
// the web client sends.
func FormBody(fReq, csrfToken string) string {
	var b strings.Builder
	b.WriteString("f.req=")
	b.WriteString(escape(fReq))
	if csrfToken != "" {
		b.WriteString("&at=")
		b.WriteString(escape(csrfToken))
	}
	b.WriteString("&")
	return b.String()
}

type QueryOptions struct {
	SessionID  string
	Language   string
	BuildLabel string
	RequestID  int64
}

func (b Batch) Query(opts QueryOptions) map[string]string {
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	query := map[string]string{
		"rpcids":      b.RPCIDs(),
		"source-path": b.SourcePath(),
		"hl":          lang,
		"rt":          "c",
	}
	if opts.SessionID != "" {
		query["f.sid"] = opts.SessionID
	}
	if opts.BuildLabel != "" {
		query["bl"] = opts.BuildLabel
	}
	if opts.RequestID > 0 {
		query["_reqid"] = strconv.FormatInt(opts.RequestID, 10)
	}
	return query
}

// escape percent-encodes everything but unreserved characters, spaces
// included.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
