package rpc

import (
	"net/url"
	"testing"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleCallEnvelope(t *testing.T) {
	t.Parallel()

	call, err := NewEncoder(nil).Encode(ListNotebooksParams{})
	require.NoError(t, err)

	batch, err := NewBatch(call)
	require.NoError(t, err)

	freq, err := batch.FReq()
	require.NoError(t, err)
	assert.Equal(t, `[[["wXbhsf","[null,1,null,[2]]",null,"generic"]]]`, freq)
}

func TestMultiCallEnvelopeNumbersCalls(t *testing.T) {
	t.Parallel()

	batch, err := NewBatch(
		domain.EncodedCall{MethodCode: "aaa", Params: []any{"x"}, SourcePath: "/notebook/n"},
		domain.EncodedCall{MethodCode: "bbb", SourcePath: "/notebook/n"},
		domain.EncodedCall{MethodCode: "aaa", Params: []any{"y"}, SourcePath: "/notebook/n"},
	)
	require.NoError(t, err)

	freq, err := batch.FReq()
	require.NoError(t, err)
	assert.JSONEq(t, `[[["aaa","[\"x\"]",null,"1"],["bbb","[]",null,"2"],["aaa","[\"y\"]",null,"3"]]]`, freq)
	assert.Equal(t, "aaa,bbb", batch.RPCIDs())
	assert.Equal(t, "/notebook/n", batch.SourcePath())
}

func TestNewBatchRejectsInvalidCalls(t *testing.T) {
	t.Parallel()

	_, err := NewBatch()
	require.ErrorContains(t, err, "no calls")

	_, err = NewBatch(domain.EncodedCall{SourcePath: "/"})
	require.ErrorContains(t, err, "no method code")

	_, err = NewBatch(
		domain.EncodedCall{MethodCode: "a", SourcePath: "/"},
		domain.EncodedCall{MethodCode: "b", SourcePath: "/notebook/x"},
	)
	require.ErrorContains(t, err, "mixes source paths")
}

func TestFormBodyRoundTripsThroughURLDecoding(t *testing.T) {
	t.Parallel()

	freq := `[[["abc","[\"a b&c=d\"]",null,"generic"]]]`
	body := FormBody(freq, "tok:en/+=")

	assert.NotContains(t, body, " ")
	assert.NotContains(t, body, "+")
	assert.True(t, len(body) > 0 && body[len(body)-1] == '&')

	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	assert.Equal(t, freq, values.Get("f.req"))
	assert.Equal(t, "tok:en/+=", values.Get("at"))
}

func TestFormBodyWithoutToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "f.req=%5B%5D&", FormBody("[]", ""))
}

func TestBatchQuery(t *testing.T) {
	t.Parallel()

	batch, err := NewBatch(domain.EncodedCall{MethodCode: "wXbhsf", SourcePath: "/"})
	require.NoError(t, err)

	query := batch.Query(QueryOptions{SessionID: "sid-1", BuildLabel: "boq_x", RequestID: 100042})
	assert.Equal(t, map[string]string{
		"rpcids":      "wXbhsf",
		"source-path": "/",
		"f.sid":       "sid-1",
		"hl":          "en",
		"rt":          "c",
		"bl":          "boq_x",
		"_reqid":      "100042",
	}, query)

	bare := batch.Query(QueryOptions{Language: "de"})
	assert.Equal(t, "de", bare["hl"])
	assert.NotContains(t, bare, "f.sid")
	assert.NotContains(t, bare, "_reqid")
}
