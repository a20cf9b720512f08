package rpc

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

// Method is the symbolic name of a remote operation.
type Method string

const (
	ListNotebooks          Method = "LIST_NOTEBOOKS"
	CreateNotebook         Method = "CREATE_NOTEBOOK"
	GetNotebook            Method = "GET_NOTEBOOK"
	RenameNotebook         Method = "RENAME_NOTEBOOK"
	DeleteNotebook         Method = "DELETE_NOTEBOOK"
	Summarize              Method = "SUMMARIZE"
	RemoveRecentlyViewed   Method = "REMOVE_RECENTLY_VIEWED"
	ShareNotebook          Method = "SHARE_NOTEBOOK"
	GetShareStatus         Method = "GET_SHARE_STATUS"
	AddSource              Method = "ADD_SOURCE"
	DeleteSource           Method = "DELETE_SOURCE"
	GetSource              Method = "GET_SOURCE"
	GetSourceGuide         Method = "GET_SOURCE_GUIDE"
	CreateArtifact         Method = "CREATE_ARTIFACT"
	ListArtifacts          Method = "LIST_ARTIFACTS"
	DeleteArtifact         Method = "DELETE_ARTIFACT"
	RenameArtifact         Method = "RENAME_ARTIFACT"
	ExportArtifact         Method = "EXPORT_ARTIFACT"
	ShareArtifact          Method = "SHARE_ARTIFACT"
	GetSuggestedReports    Method = "GET_SUGGESTED_REPORTS"
	GetInteractiveHTML     Method = "GET_INTERACTIVE_HTML"
	ActOnSources           Method = "ACT_ON_SOURCES"
	StartFastResearch      Method = "START_FAST_RESEARCH"
	StartDeepResearch      Method = "START_DEEP_RESEARCH"
	PollResearch           Method = "POLL_RESEARCH"
	ImportResearch         Method = "IMPORT_RESEARCH"
	CreateNote             Method = "CREATE_NOTE"
	UpdateNote             Method = "UPDATE_NOTE"
	DeleteNote             Method = "DELETE_NOTE"
	GetNotesAndMindMaps    Method = "GET_NOTES_AND_MIND_MAPS"
	GetConversationHistory Method = "GET_CONVERSATION_HISTORY"
)

var builtinMethods = []struct {
	method Method
	code   string
	human  string
}{
	{ListNotebooks, "wXbhsf", "list notebooks"},
	{CreateNotebook, "CCqFvf", "create notebook"},
	{GetNotebook, "rLM1Ne", "get notebook"},
	{RenameNotebook, "s0tc2d", "rename notebook"},
	{DeleteNotebook, "WWINqb", "delete notebook"},
	{Summarize, "VfAZjd", "summarize notebook"},
	{RemoveRecentlyViewed, "fejl7e", "remove recently viewed"},
	{ShareNotebook, "QDyure", "share notebook"},
	{GetShareStatus, "JFMDGd", "get share status"},
	{AddSource, "izAoDd", "add source"},
	{DeleteSource, "tGMBJ", "delete source"},
	{GetSource, "hizoJc", "get source"},
	{GetSourceGuide, "tr032e", "get source guide"},
	{CreateArtifact, "R7cb6c", "create artifact"},
	{ListArtifacts, "gArtLc", "list artifacts"},
	{DeleteArtifact, "V5N4be", "delete artifact"},
	{RenameArtifact, "rc3d8d", "rename artifact"},
	{ExportArtifact, "Krh3pd", "export artifact"},
	{ShareArtifact, "RGP97b", "share artifact"},
	{GetSuggestedReports, "ciyUvf", "get suggested reports"},
	{GetInteractiveHTML, "v9rmvd", "get interactive html"},
	{ActOnSources, "yyryJe", "act on sources"},
	{StartFastResearch, "Ljjv0c", "start fast research"},
	{StartDeepResearch, "QA9ei", "start deep research"},
	{PollResearch, "e3bVqc", "poll research"},
	{ImportResearch, "LBwxtb", "import research"},
	{CreateNote, "CYK0Xb", "create note"},
	{UpdateNote, "cYAfTb", "update note"},
	{DeleteNote, "AH0mwd", "delete note"},
	{GetNotesAndMindMaps, "cFji9", "get notes and mind maps"},
	{GetConversationHistory, "hPTbtc", "get conversation history"},
}

// Registry is an append-only table from method name to wire code.
type Registry struct {
	mu      sync.RWMutex
	methods map[Method]domain.MethodDescriptor
}

// NewRegistry loads the built-in table and applies code overrides keyed by
// method name (case-insensitive). Overriding an unknown name is an error.
func NewRegistry(overrides map[string]string) (*Registry, error) {
	r := &Registry{methods: make(map[Method]domain.MethodDescriptor, len(builtinMethods))}
	for _, m := range builtinMethods {
		code := m.code
		if override, ok := lookupOverride(overrides, m.method); ok {
			code = override
		}
		if err := r.Register(m.method, domain.MethodDescriptor{Code: code, HumanName: m.human}); err != nil {
			return nil, err
		}
	}

	for name := range overrides {
		if _, ok := r.methods[Method(strings.ToUpper(name))]; !ok {
			return nil, fmt.Errorf("override for %q: %w", name, domain.ErrUnknownMethod)
		}
	}
	return r, nil
}

// DefaultRegistry returns the built-in table without overrides.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(nil)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Register(method Method, desc domain.MethodDescriptor) error {
	if strings.TrimSpace(desc.Code) == "" {
		return fmt.Errorf("register %s: method code is empty", method)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[method]; exists {
		return fmt.Errorf("register %s: already registered", method)
	}
	r.methods[method] = desc
	return nil
}

func (r *Registry) Lookup(method Method) (domain.MethodDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.methods[method]
	if !ok {
		return domain.MethodDescriptor{}, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
	}
	return desc, nil
}

// LookupName resolves a user supplied name such as "list_notebooks".
func (r *Registry) LookupName(name string) (Method, domain.MethodDescriptor, error) {
	method := Method(strings.ToUpper(strings.TrimSpace(name)))
	desc, err := r.Lookup(method)
	return method, desc, err
}

func (r *Registry) Methods() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]Method, 0, len(r.methods))
	for m := range r.methods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

func lookupOverride(overrides map[string]string, method Method) (string, bool) {
	for name, code := range overrides {
		if strings.EqualFold(name, string(method)) && strings.TrimSpace(code) != "" {
			return strings.TrimSpace(code), true
		}
	}
	return "", false
}
