package domain

// MethodDescriptor maps a symbolic operation to its opaque wire code.
type MethodDescriptor struct {
	Code      string
	HumanName string
}

// EncodedCall is one positional RPC invocation ready for the transport.
// Params is a nested structure of scalars, slices and nil holes.
type EncodedCall struct {
	MethodCode string
	Params     []any
	SourcePath string
}

// RawBatchResponse holds the decoded top-level chunks of one batch reply in
// wire order.
type RawBatchResponse struct {
	Chunks []any
}

// RPCResult is the decoder's verdict for one call of a batch. Exactly one of
// Payload (with Empty false), Err, or Empty is meaningful.
type RPCResult struct {
	MethodCode    string
	CorrelationID string
	Payload       any
	Empty         bool
	// SeenCodes lists the method codes present in the response when the
	// requested one was absent.
	SeenCodes []string
	Err       error
}
