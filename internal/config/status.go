package config

import (
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/spf13/cast"
)

// StatusTable maps the service's numeric task status codes to task states.
// The codes are observed from traffic, so the table is data, not code.
type StatusTable map[int]domain.TaskState

func ParseStatusTable(raw map[string]string) (StatusTable, error) {
	table := make(StatusTable, len(raw))
	for key, value := range raw {
		code, err := cast.ToIntE(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("status code %q: %w", key, err)
		}
		state, err := domain.ParseTaskState(value)
		if err != nil {
			return nil, fmt.Errorf("status code %d: %w", code, err)
		}
		table[code] = state
	}
	return table, nil
}

// State resolves a status code. Unrecognised codes count as processing so a
// new code never fails a task outright.
func (t StatusTable) State(code int) (domain.TaskState, bool) {
	if state, ok := t[code]; ok {
		return state, true
	}
	return domain.TaskStateProcessing, false
}

// RateLimitPolicy lists the RPC error codes and reasons that signal
// throttling rather than a real failure.
type RateLimitPolicy struct {
	Codes   []int
	Reasons []string
}

func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{Codes: []int{429, 8}, Reasons: []string{userDisplayableError}}
}

func (p RateLimitPolicy) Matches(code int, reason string) bool {
	for _, c := range p.Codes {
		if code != 0 && c == code {
			return true
		}
	}
	for _, r := range p.Reasons {
		if reason != "" && strings.EqualFold(r, reason) {
			return true
		}
	}
	return false
}

// DefaultStatusTables returns the mappings seen in captured traffic.
func DefaultStatusTables() map[domain.TaskKind]StatusTable {
	return map[domain.TaskKind]StatusTable{
		domain.TaskKindGeneration: {
			1: domain.TaskStateProcessing,
			2: domain.TaskStatePending,
			3: domain.TaskStateCompleted,
			4: domain.TaskStateFailed,
		},
		domain.TaskKindResearch: {
			1: domain.TaskStateProcessing,
			2: domain.TaskStateCompleted,
			6: domain.TaskStateCompleted,
		},
	}
}
