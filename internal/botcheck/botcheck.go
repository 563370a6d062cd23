// Package botcheck provides waitlist.BotCheckProvider implementations.
//
// Every provider maps the requesting form to its hidden token field and reports
// failures wrapped in waitlist.ErrBotCheckFailed.
package botcheck

import (
	"fmt"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

// DefaultAction is the challenge action reported with every token.
const DefaultAction = "submit"

// FieldMap resolves a form ID to the hidden field that carries its token.
type FieldMap map[string]string

// NewFieldMap builds a FieldMap from bound forms.
func NewFieldMap(forms []waitlist.Form) FieldMap {
	fields := make(FieldMap, len(forms))
	for _, form := range forms {
		fields[form.ID] = form.TokenField
	}
	return fields
}

// Field returns the token field for formID or a bot-check error for unknown forms.
func (f FieldMap) Field(formID string) (string, error) {
	field, ok := f[formID]
	if !ok || field == "" {
		return "", fmt.Errorf("%w: unknown form %q", waitlist.ErrBotCheckFailed, formID)
	}
	return field, nil
}

