package botcheck

import (
	"context"
	"fmt"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

// Static returns an operator-supplied token.
type Static struct {
	token  string
	fields FieldMap
}

// NewStatic constructs a Static provider.
func NewStatic(token string, fields FieldMap) *Static {
	return &Static{token: token, fields: fields}
}

// AcquireToken implements waitlist.BotCheckProvider.
func (p *Static) AcquireToken(_ context.Context, formID string) (string, error) {
	if _, err := p.fields.Field(formID); err != nil {
		return "", err
	}
	if p.token == "" {
		return "", fmt.Errorf("%w: no token configured", waitlist.ErrBotCheckFailed)
	}
	return p.token, nil
}
