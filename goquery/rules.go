// Package goquery provides CSS-selector-based implementations of
// gazette.Extractor: the generic rule-driven extractor that most sources
// use, and specialized extractors for known HTML shapes.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fangeriz/gazette"
)

// Canonical field names understood by the rule-driven extractor.
const (
	FieldTitle      = "title"
	FieldSection    = "section"
	FieldDepartment = "department"
	FieldRank       = "rank"
	FieldURL        = "url"
)

// Ensure RuleExtractor implements gazette.Extractor at compile time.
var _ gazette.Extractor = (*RuleExtractor)(nil)

// RuleExtractor extracts publication items from markup using a source's
// declarative rule set. Both the "html" and "xml" engines are parsed
// with the lenient HTML parser, which tolerates the malformed documents
// some gazettes serve; selectors therefore match lowercased tag names.
type RuleExtractor struct {
	base  string
	rules *gazette.Rules
}

// NewRuleExtractor creates the generic extractor for one source.
func NewRuleExtractor(src *gazette.Source) (gazette.Extractor, error) {
	if src.Rules == nil {
		return nil, gazette.Errorf(gazette.EINVALID, "source %s: parser rules required for generic extraction", src.CountryCode)
	}
	if err := src.Rules.Validate(); err != nil {
		return nil, err
	}
	return &RuleExtractor{base: src.BaseURL, rules: src.Rules}, nil
}

// Extract selects all container nodes and computes each configured field
// within the node's subtree. Items missing a non-empty title are dropped;
// malformed input degrades to partial (possibly empty) results, never an
// error for the whole batch.
func (e *RuleExtractor) Extract(content string) ([]gazette.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil
	}

	var items []gazette.Item
	doc.Find(e.rules.Container).Each(func(_ int, container *goquery.Selection) {
		var it gazette.Item
		for name, rule := range e.rules.Fields {
			value := e.fieldValue(container, rule)
			if name == FieldURL {
				value = gazette.JoinURL(e.base, value)
			}
			switch name {
			case FieldTitle:
				it.Title = value
			case FieldSection:
				it.Section = value
			case FieldDepartment:
				it.Department = value
			case FieldRank:
				it.Rank = value
			case FieldURL:
				it.URL = value
			}
		}
		if strings.TrimSpace(it.Title) != "" {
			items = append(items, it)
		}
	})
	return items, nil
}

// fieldValue applies one field rule within a container's subtree,
// falling back to the rule's default when the selector matches nothing.
func (e *RuleExtractor) fieldValue(container *goquery.Selection, rule gazette.FieldRule) string {
	if rule.Selector == "" {
		return rule.Default
	}
	sel := container.Find(rule.Selector).First()
	if sel.Length() == 0 {
		return rule.Default
	}
	if rule.Type == "attr" {
		if v, ok := sel.Attr(rule.Attr); ok {
			return v
		}
		return rule.Default
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
