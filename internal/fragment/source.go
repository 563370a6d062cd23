// Package fragment loads page fragment resources and extracts their body markup.
package fragment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotFound reports a missing fragment resource.
var ErrNotFound = errors.New("fragment not found")

// Source fetches a fragment resource such as "thank-you.html" by name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// validName rejects empty names, absolute paths and traversal.
func validName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || !fs.ValidPath(name) {
		return fmt.Errorf("invalid fragment name %q", name)
	}
	return nil
}
