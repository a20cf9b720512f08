package rpc

import (
	"bytes"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/spf13/cast"
)

const (
	antiXSSIPrefix       = ")]}'"
	tagResult            = "wrb.fr"
	tagError             = "er"
	userDisplayableError = "UserDisplayableError"
	userDisplayableCode  = "USER_DISPLAYABLE_ERROR"
	previewChars         = 120
)

var errorCodeMessages = map[int]string{
	400: "invalid request parameters",
	401: "authentication required",
	403: "insufficient permissions",
	404: "requested resource not found",
	429: "rate limit exceeded",
	500: "server error",
}

// authFailureCodes are error entry codes that mean the token pair is stale.
// 16 is the gRPC UNAUTHENTICATED status.
var authFailureCodes = map[int]struct{}{401: {}, 403: {}, 16: {}}

// ParseChunks strips the anti-XSSI guard and reassembles the length-prefixed
// chunks. A chunk may span several lines; lines are joined until the text
// parses as one JSON value.
func ParseChunks(body []byte) ([]any, error) {
	text := string(body)
	if strings.HasPrefix(text, antiXSSIPrefix) {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = ""
		}
	}

	lines := strings.Split(text, "\n")
	chunks := make([]any, 0, len(lines)/2)
	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		i++
		if line == "" {
			continue
		}

		if !isByteCount(line) {
			chunk, err := unmarshalChunk([]byte(line))
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, chunk)
			continue
		}

		var buf bytes.Buffer
		complete := false
		for i < len(lines) {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(strings.TrimRight(lines[i], "\r"))
			i++
			if json.Valid(bytes.TrimSpace(buf.Bytes())) {
				complete = true
				break
			}
		}
		if !complete {
			return nil, &domain.DecodeError{Reason: "truncated chunk", Preview: preview(buf.String())}
		}
		chunk, err := unmarshalChunk(bytes.TrimSpace(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func unmarshalChunk(data []byte) (any, error) {
	var chunk any
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, &domain.DecodeError{Reason: "malformed chunk", Preview: preview(string(data)), Err: err}
	}
	return chunk, nil
}

func isByteCount(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return line != ""
}

func preview(s string) string {
	if len(s) > previewChars {
		return s[:previewChars]
	}
	return s
}

// entries flattens a chunk into its response entries. A chunk is either one
// entry or a list of entries.
func entries(chunk any) [][]any {
	list, ok := chunk.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	if _, nested := list[0].([]any); !nested {
		return [][]any{list}
	}
	out := make([][]any, 0, len(list))
	for _, item := range list {
		if entry, ok := item.([]any); ok {
			out = append(out, entry)
		}
	}
	return out
}

func at(entry []any, idx int) any {
	if idx < len(entry) {
		return entry[idx]
	}
	return nil
}

// Decoder locates replies in a batch response.
type Decoder struct {
	rateLimit config.RateLimitPolicy
}

func NewDecoder(rateLimit config.RateLimitPolicy) *Decoder {
	return &Decoder{rateLimit: rateLimit}
}

// Decode finds the reply to one call. An explicit error entry becomes an
// RPCError (or RateLimitError); a missing or null payload is Empty.
func (d *Decoder) Decode(raw domain.RawBatchResponse, methodCode, correlationID string) domain.RPCResult {
	result := domain.RPCResult{MethodCode: methodCode, CorrelationID: correlationID}

	for _, chunk := range raw.Chunks {
		for _, entry := range entries(chunk) {
			if len(entry) < 2 || !d.matches(entry, methodCode, correlationID) {
				continue
			}

			switch at(entry, 0) {
			case tagError:
				result.Err = d.entryError(methodCode, entry)
				return result
			case tagResult:
				payload := at(entry, 2)
				if payload == nil {
					if containsUserDisplayableError(at(entry, 5)) {
						result.Err = d.classify(&domain.RPCError{
							MethodCode: methodCode,
							Reason:     userDisplayableCode,
							Message:    "rate limit or quota exceeded",
						})
						return result
					}
					result.Empty = true
					return result
				}
				result.Payload = decodePayload(payload)
				return result
			}
		}
	}

	result.Empty = true
	seen := SeenMethodCodes(raw)
	if len(seen) > 0 && !contains(seen, methodCode) {
		result.SeenCodes = seen
	}
	return result
}

// DecodeBatch decodes one result per call, in call order.
func (d *Decoder) DecodeBatch(raw domain.RawBatchResponse, batch Batch) []domain.RPCResult {
	results := make([]domain.RPCResult, 0, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		results = append(results, d.Decode(raw, batch.Call(i).MethodCode, batch.CorrelationID(i)))
	}
	return results
}

func (d *Decoder) matches(entry []any, methodCode, correlationID string) bool {
	tag, _ := at(entry, 0).(string)
	if tag != tagResult && tag != tagError {
		return false
	}

	code := at(entry, 1)
	switch {
	case code == methodCode:
	case tag == tagError && code == nil:
	default:
		return false
	}

	if correlationID == "" {
		return true
	}
	if corr, ok := at(entry, 6).(string); ok {
		return corr == correlationID
	}
	// Entries without a correlation id can only be attributed to a
	// single-call batch.
	return correlationID == GenericCorrelation
}

func (d *Decoder) entryError(methodCode string, entry []any) error {
	rpcErr := &domain.RPCError{MethodCode: methodCode}

	switch raw := at(entry, 2).(type) {
	case string:
		rpcErr.Reason = raw
	case nil:
		rpcErr.Code = cast.ToInt(firstNumber(at(entry, 5)))
	default:
		rpcErr.Code = cast.ToInt(raw)
	}
	if msg, ok := errorCodeMessages[rpcErr.Code]; ok {
		rpcErr.Message = msg
	} else if rpcErr.Code >= 400 && rpcErr.Code < 500 {
		rpcErr.Message = "client error"
	} else if rpcErr.Code >= 500 && rpcErr.Code < 600 {
		rpcErr.Message = "server error"
	}
	return d.classify(rpcErr)
}

func (d *Decoder) classify(rpcErr *domain.RPCError) error {
	if d.rateLimit.Matches(rpcErr.Code, rpcErr.Reason) {
		return &domain.RateLimitError{RPCError: *rpcErr}
	}
	return rpcErr
}

// decodePayload unwraps the JSON string payload; a non-JSON string is
// returned as is.
func decodePayload(payload any) any {
	s, ok := payload.(string)
	if !ok {
		return payload
	}
	var decoded any
	if err := json.UnmarshalFromString(s, &decoded); err != nil {
		return s
	}
	return decoded
}

func containsUserDisplayableError(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(t, userDisplayableError)
	case []any:
		for _, item := range t {
			if containsUserDisplayableError(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range t {
			if containsUserDisplayableError(item) {
				return true
			}
		}
	}
	return false
}

func firstNumber(v any) any {
	switch t := v.(type) {
	case float64, int:
		return t
	case []any:
		for _, item := range t {
			if n := firstNumber(item); n != nil {
				return n
			}
		}
	}
	return nil
}

// SeenMethodCodes lists the method codes present in a response, for
// diagnosing rotated codes.
func SeenMethodCodes(raw domain.RawBatchResponse) []string {
	var seen []string
	for _, chunk := range raw.Chunks {
		for _, entry := range entries(chunk) {
			tag := at(entry, 0)
			if tag != tagResult && tag != tagError {
				continue
			}
			if code, ok := at(entry, 1).(string); ok && !contains(seen, code) {
				seen = append(seen, code)
			}
		}
	}
	return seen
}

// AuthFailure reports whether the response carries an authentication error
// entry, the shape the service uses when the token pair went stale.
func AuthFailure(raw domain.RawBatchResponse) (int, bool) {
	for _, chunk := range raw.Chunks {
		for _, entry := range entries(chunk) {
			if at(entry, 0) != tagError {
				continue
			}
			for _, idx := range []int{2, 5} {
				n := firstNumber(at(entry, idx))
				if n == nil {
					continue
				}
				code := cast.ToInt(n)
				if _, ok := authFailureCodes[code]; ok {
					return code, true
				}
			}
		}
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
