package rpc

import jsoniter "github.com/json-iterator/go"

// json matches the compact, non-HTML-escaping encoding the web client sends.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()
