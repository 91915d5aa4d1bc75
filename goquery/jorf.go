package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fangeriz/gazette"
)

// Ensure JORFExtractor implements gazette.Extractor at compile time.
var _ gazette.Extractor = (*JORFExtractor)(nil)

// JORFExtractor parses the French Journal officiel daily summary page.
// The summary nests publication links under section headings; each link
// to a /jorf/ text becomes one item, with the enclosing heading as its
// department.
type JORFExtractor struct {
	base string
}

// NewJORFExtractor creates the extractor for one source.
func NewJORFExtractor(src *gazette.Source) (gazette.Extractor, error) {
	return &JORFExtractor{base: src.BaseURL}, nil
}

// Extract returns one item per summary link. Links without text are
// skipped; a page with no recognizable links yields an empty result.
func (e *JORFExtractor) Extract(content string) ([]gazette.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil
	}

	var items []gazette.Item
	doc.Find(`a[href*="/jorf/id/"]`).Each(func(_ int, sel *goquery.Selection) {
		title := strings.Join(strings.Fields(sel.Text()), " ")
		if title == "" {
			return
		}
		href, _ := sel.Attr("href")

		// The nearest preceding heading names the issuing ministry.
		department := ""
		if h := sel.Closest("li,div").PrevAllFiltered("h3,h2").First(); h.Length() > 0 {
			department = strings.Join(strings.Fields(h.Text()), " ")
		}

		items = append(items, gazette.Item{
			Title:      title,
			Department: department,
			URL:        gazette.JoinURL(e.base, href),
		})
	})
	return items, nil
}
