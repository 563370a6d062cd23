package fragment

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed fragment resource.
type Document struct {
	Title string
	Body  string
}

// Parse parses an HTML document and returns the inner HTML of its body. As
// with browser parsing, markup without an explicit body still yields one.
func Parse(data []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("parse fragment: %w", err)
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return Document{}, fmt.Errorf("render fragment body: %w", err)
	}
	return Document{
		Title: strings.TrimSpace(doc.Find("head > title").First().Text()),
		Body:  body,
	}, nil
}

// ExtractBody returns only the body inner HTML of data.
func ExtractBody(data []byte) (string, error) {
	doc, err := Parse(data)
	if err != nil {
		return "", err
	}
	return doc.Body, nil
}
