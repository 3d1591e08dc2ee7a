package normalize

import (
	"fmt"
	"sort"

	"github.com/oliveagle/jsonpath"
	"github.com/opsboard/otpgate/model"
)

const GenericFailureReason = "request failed"

// The backend replies inconsistently across call sites; these are the only
// places a pending-change reference and its companion message are known to
// appear. Anything outside this closed set is treated as a failure.
var refPaths = []string{"$.pendingChangeId", "$.data.pendingChangeId"}
var messagePaths = []string{"$.message", "$.data.message"}

// Normalize reduces one raw backend reply to exactly one outcome variant. A
// pending-change reference wins over a bare success flag, and a field error
// map wins over a flat error string. It never panics: the input is untrusted
// and anything unclassifiable is a failure.
func Normalize(raw any) (outcome model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = model.FailedOutcome(GenericFailureReason)
		}
	}()
	m, ok := raw.(map[string]any)
	if !ok || m == nil {
		return model.FailedOutcome(GenericFailureReason)
	}
	if ref := lookupString(m, refPaths); ref != "" {
		return model.PendingOutcome(ref, lookupString(m, messagePaths))
	}
	if isSuccess(m) {
		return model.AppliedOutcome(resultData(m))
	}
	if fieldErrors, present := fieldErrorMap(m); present {
		return model.FailedOutcomeWithFields(firstFieldMessage(fieldErrors), fieldErrors)
	}
	if reason := flatError(m); reason != "" {
		return model.FailedOutcome(reason)
	}
	return model.FailedOutcome(GenericFailureReason)
}

func lookupString(m map[string]any, paths []string) string {
	for _, path := range paths {
		value, err := jsonpath.JsonPathLookup(m, path)
		if err != nil {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func isSuccess(m map[string]any) bool {
	if t, ok := m["type"].(string); ok && t == "success" {
		return true
	}
	if s, ok := m["success"].(bool); ok && s {
		return true
	}
	return false
}

func resultData(m map[string]any) map[string]any {
	if data, ok := m["data"].(map[string]any); ok {
		return data
	}
	return nil
}

func fieldErrorMap(m map[string]any) (map[string][]string, bool) {
	raw, ok := m["errors"]
	if !ok {
		return nil, false
	}
	switch errs := raw.(type) {
	case map[string][]string:
		return errs, true
	case map[string]any:
		fieldErrors := make(map[string][]string, len(errs))
		for field, v := range errs {
			fieldErrors[field] = coerceMessages(v)
		}
		return fieldErrors, true
	}
	return nil, false
}

func coerceMessages(v any) []string {
	switch messages := v.(type) {
	case []string:
		return messages
	case []any:
		out := make([]string, 0, len(messages))
		for _, msg := range messages {
			out = append(out, fmt.Sprintf("%v", msg))
		}
		return out
	case string:
		return []string{messages}
	}
	return []string{fmt.Sprintf("%v", v)}
}

func firstFieldMessage(fieldErrors map[string][]string) string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if len(fieldErrors[field]) > 0 && fieldErrors[field][0] != "" {
			return fieldErrors[field][0]
		}
	}
	return GenericFailureReason
}

func flatError(m map[string]any) string {
	if s, ok := m["error"].(string); ok && s != "" {
		return s
	}
	if s, ok := m["message"].(string); ok && s != "" {
		return s
	}
	return ""
}
