// Package site renders the landing page components and embeds the routed
// fragment resources.
package site

import (
	"embed"
	"io/fs"
)

//go:embed fragments/*.html
var fragments embed.FS

// Fragments returns the routed fragment resources, e.g. "thank-you.html".
func Fragments() fs.FS {
	sub, err := fs.Sub(fragments, "fragments")
	if err != nil {
		panic(err)
	}
	return sub
}
