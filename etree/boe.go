// Package etree provides an XML implementation of gazette.Extractor for
// the Spanish BOE open-data API, whose daily summary is a well-formed
// XML document of nested sections, departments, and items.
package etree

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/fangeriz/gazette"
)

// Ensure BOEExtractor implements gazette.Extractor at compile time.
var _ gazette.Extractor = (*BOEExtractor)(nil)

// BOEExtractor parses the BOE sumario XML. The document nests
// <seccion nombre=...> → <departamento nombre=...> → (optionally
// <epigrafe nombre=...>) → <item> with <titulo> and <url_pdf> children.
type BOEExtractor struct {
	base string
}

// NewBOEExtractor creates the extractor for one source.
func NewBOEExtractor(src *gazette.Source) (gazette.Extractor, error) {
	return &BOEExtractor{base: src.BaseURL}, nil
}

// Extract walks the summary tree and returns one item per <item>
// element with a non-empty title. A document that fails to parse yields
// an empty result, not an error; individual malformed items are skipped.
func (e *BOEExtractor) Extract(content string) ([]gazette.Item, error) {
	doc := etree.NewDocument()
	// Some mirrors serve ISO-8859-1 declared documents.
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(content); err != nil {
		return nil, nil
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var items []gazette.Item
	for _, sec := range root.FindElements("//seccion") {
		section := attrOr(sec, "nombre", attrOr(sec, "num", ""))
		for _, dep := range sec.SelectElements("departamento") {
			department := attrOr(dep, "nombre", "")
			for _, itemEl := range dep.FindElements(".//item") {
				title := childText(itemEl, "titulo")
				if title == "" {
					continue
				}

				rank := ""
				if parent := itemEl.Parent(); parent != nil && parent.Tag == "epigrafe" {
					rank = attrOr(parent, "nombre", "")
				}

				items = append(items, gazette.Item{
					Title:      title,
					Section:    section,
					Department: department,
					Rank:       rank,
					URL:        gazette.JoinURL(e.base, childText(itemEl, "url_pdf")),
				})
			}
		}
	}
	return items, nil
}

// attrOr returns an element attribute or a fallback value.
func attrOr(el *etree.Element, key, fallback string) string {
	if a := el.SelectAttr(key); a != nil && a.Value != "" {
		return a.Value
	}
	return fallback
}

// childText returns the trimmed text of a direct child element.
func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
