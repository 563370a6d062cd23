package botcheck

import (
	"context"
	"fmt"
	"net/url"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

type formValuesKey struct{}

// WithFormValues returns a context carrying the submitted form values.
func WithFormValues(ctx context.Context, values url.Values) context.Context {
	return context.WithValue(ctx, formValuesKey{}, values)
}

// FormValues extracts the form values stored by WithFormValues.
func FormValues(ctx context.Context) (url.Values, bool) {
	values, ok := ctx.Value(formValuesKey{}).(url.Values)
	return values, ok
}

// FormField reads tokens produced by the in-page challenge widget from the
// form-scoped hidden field of the submitted form.
type FormField struct {
	fields FieldMap
}

// NewFormField constructs a FormField provider.
func NewFormField(fields FieldMap) *FormField {
	return &FormField{fields: fields}
}

// AcquireToken implements waitlist.BotCheckProvider.
func (p *FormField) AcquireToken(ctx context.Context, formID string) (string, error) {
	field, err := p.fields.Field(formID)
	if err != nil {
		return "", err
	}
	values, ok := FormValues(ctx)
	if !ok {
		return "", fmt.Errorf("%w: no form values on request", waitlist.ErrBotCheckFailed)
	}
	token := values.Get(field)
	if token == "" {
		return "", fmt.Errorf("%w: field %s is empty", waitlist.ErrBotCheckFailed, field)
	}
	return token, nil
}
