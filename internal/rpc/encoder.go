package rpc

import (
	"fmt"
	"net/url"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/valyala/fasttemplate"
)

// Params is the typed input of one method. Each implementation is the
// hand-verified positional template for that method.
type Params interface {
	Method() Method
	encode() ([]any, error)
	route() route
}

type idSlot struct {
	method Method
	slot   string
}

// idNesting is how many array levels enclose an id in its field. For id
// lists the list itself counts as the outermost level. The depths differ per
// method and are not derivable from each other.
var idNesting = map[idSlot]int{
	{DeleteNotebook, "notebook_id"}:       1,
	{DeleteSource, "source_id"}:           3,
	{GetSource, "source_id"}:              1,
	{CreateArtifact, "source_ids"}:        3,
	{CreateArtifact, "source_ids_config"}: 2,
	{ActOnSources, "source_ids"}:          3,
	{DeleteNote, "note_id"}:               1,
}

// nestID wraps id in the number of single-element arrays recorded for the
// slot. A missing table entry is a programming error.
func nestID(method Method, slot string, id any) []any {
	return nest(id, nestingDepth(method, slot)).([]any)
}

func nestingDepth(method Method, slot string) int {
	depth, ok := idNesting[idSlot{method: method, slot: slot}]
	if !ok || depth < 1 {
		panic(fmt.Sprintf("rpc: no nesting depth for %s.%s", method, slot))
	}
	return depth
}

func nest(v any, depth int) any {
	for i := 0; i < depth; i++ {
		v = []any{v}
	}
	return v
}

// nestEach builds an id list whose elements sit one level shallower than the
// slot depth, the list supplying the last level.
func nestEach(method Method, slot string, ids []string) []any {
	depth := nestingDepth(method, slot)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, nest(id, depth-1))
	}
	return out
}

var (
	homeTemplate     = fasttemplate.New("/", "{{", "}}")
	notebookTemplate = fasttemplate.New("/notebook/{{notebook_id}}", "{{", "}}")
)

// route is the source-path scope of a call.
type route struct {
	tpl  *fasttemplate.Template
	vars map[string]any
}

func homeRoute() route {
	return route{tpl: homeTemplate}
}

func notebookRoute(notebookID string) route {
	return route{tpl: notebookTemplate, vars: map[string]any{"notebook_id": url.PathEscape(notebookID)}}
}

func (r route) render() string {
	if r.tpl == nil {
		return "/"
	}
	return r.tpl.ExecuteString(r.vars)
}

// Encoder turns typed params into EncodedCalls using the registry's codes.
type Encoder struct {
	registry *Registry
}

func NewEncoder(registry *Registry) *Encoder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Encoder{registry: registry}
}

func (e *Encoder) Registry() *Registry {
	return e.registry
}

func (e *Encoder) Encode(p Params) (domain.EncodedCall, error) {
	desc, err := e.registry.Lookup(p.Method())
	if err != nil {
		return domain.EncodedCall{}, err
	}

	params, err := p.encode()
	if err != nil {
		return domain.EncodedCall{}, fmt.Errorf("encode %s: %w", p.Method(), err)
	}

	return domain.EncodedCall{
		MethodCode: desc.Code,
		Params:     params,
		SourcePath: p.route().render(),
	}, nil
}

// RawParams sends an already positional parameter list. It exists for
// probing methods that have no typed template yet.
type RawParams struct {
	Name       Method
	Values     []any
	NotebookID string
}

func (p RawParams) Method() Method { return p.Name }

func (p RawParams) encode() ([]any, error) {
	if p.Values == nil {
		return []any{}, nil
	}
	return p.Values, nil
}

func (p RawParams) route() route {
	if p.NotebookID != "" {
		return notebookRoute(p.NotebookID)
	}
	return homeRoute()
}

func requireID(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
