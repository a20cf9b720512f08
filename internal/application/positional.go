package application

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// pick walks a decoded positional payload. Any missing index or non-array
// step yields nil.
func pick(v any, path ...int) any {
	for _, idx := range path {
		list, ok := v.([]any)
		if !ok || idx < 0 || idx >= len(list) {
			return nil
		}
		v = list[idx]
	}
	return v
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) int {
	if v == nil {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return n
}

func unixTime(v any) time.Time {
	secs, err := cast.ToInt64E(v)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

func isMediaURL(v any) bool {
	s := text(v)
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
