package waitlist

import (
	"encoding/json"
	"strconv"
)

// Interpret normalizes a raw API response. The first matching rule wins:
// an explicit status, then an explicit success flag, then a bare message, then the default.
// Only the first two rules can yield a confirmed outcome.
func Interpret(raw RawResponse) SubmissionOutcome {
	if status, ok := raw["status"]; ok {
		return SubmissionOutcome{
			Success:   status == true,
			APIStatus: boolPtr(status),
			Message:   messageOr(raw, MsgOperationDone),
		}
	}
	if success, ok := raw["success"]; ok {
		return SubmissionOutcome{
			Success:   truthy(success),
			APIStatus: boolPtr(success),
			Message:   messageOr(raw, MsgOperationDone),
		}
	}
	if msg, ok := raw["message"]; ok && truthy(msg) {
		return SubmissionOutcome{
			Success:   true,
			APIStatus: newBool(false),
			Message:   text(msg),
		}
	}
	return SubmissionOutcome{
		Success:   true,
		APIStatus: newBool(false),
		Message:   MsgSubscribed,
	}
}

func messageOr(raw RawResponse, fallback string) string {
	if msg, ok := raw["message"]; ok && truthy(msg) {
		return text(msg)
	}
	return fallback
}

// truthy applies JSON-value truthiness: null, false, 0 and "" are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return MsgOperationDone
		}
		return string(b)
	}
}

func boolPtr(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func newBool(b bool) *bool {
	return &b
}
