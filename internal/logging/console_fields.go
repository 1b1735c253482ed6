package logging

import (
	"log/slog"
	"sort"
	"strings"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys orders the fields shown at info level; the rest follow
// in record order.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldDecisionType,
	"decision_result",
	"decision_reason",
	FieldEvent,
	FieldGrade,
	"from",
	"to",
	"taxon",
	"rank",
	"agreements",
	"participants",
	FieldConfidence,
	"outcome",
	"query",
	"results",
	"error",
	FieldErrorHint,
	FieldImpact,
}

var highlightRank = func() map[string]int {
	ranks := make(map[string]int, len(infoHighlightKeys))
	for i, key := range infoHighlightKeys {
		ranks[key] = i
	}
	return ranks
}()

// selectInfoFields returns the fields shown at info level, highlighted keys
// first, and how many were held back as debug-only.
func selectInfoFields(attrs []kv) ([]infoField, int) {
	visible := make([]kv, 0, len(attrs))
	hidden := 0
	for _, attr := range attrs {
		switch {
		case skipInfoKey(attr.key):
		case isDebugOnlyKey(attr.key):
			hidden++
		default:
			visible = append(visible, attr)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return priority(visible[i].key) < priority(visible[j].key)
	})
	fields := make([]infoField, len(visible))
	for i, attr := range visible {
		fields[i] = infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.key, attr.value)}
	}
	return fields, hidden
}

func priority(key string) int {
	if rank, ok := highlightRank[key]; ok {
		return rank
	}
	return len(infoHighlightKeys)
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	if key == FieldConfidence && (v.Kind() == slog.KindInt64 || v.Kind() == slog.KindFloat64) {
		return formatValue(v) + "%"
	}
	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldObservationID, FieldUserID, FieldComponent:
		return true
	default:
		return false
	}
}

// isDebugOnlyKey hides identifiers and filesystem locations from info output.
func isDebugOnlyKey(key string) bool {
	switch {
	case strings.HasSuffix(key, "_id"), strings.HasSuffix(key, "_path"), strings.HasSuffix(key, "_dir"):
		return true
	case key == "dsn":
		return true
	default:
		return false
	}
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event Type"
	case FieldDecisionType:
		return "Decision"
	case "decision_result":
		return "Result"
	case "decision_reason":
		return "Reason"
	case FieldErrorHint:
		return "Hint"
	case "from":
		return "Previous"
	case "to":
		return "Now"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
