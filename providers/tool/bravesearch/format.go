package bravesearch

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// SanitizeQuery trims the query, turns control characters into spaces,
// collapses runs of whitespace and caps the result at MaxQueryLength runes.
func SanitizeQuery(query string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, query)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "", ErrEmptyQuery
	}

	if runes := []rune(cleaned); len(runes) > MaxQueryLength {
		cleaned = strings.TrimSpace(string(runes[:MaxQueryLength]))
	}
	return cleaned, nil
}

// cleanSnippet converts the HTML highlighting the API puts in titles and
// descriptions (<strong>, entities) into plain markdown. The converter
// re-escapes entities on output, so the result is unescaped once more.
func cleanSnippet(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return html.UnescapeString(s)
	}
	return strings.TrimSpace(html.UnescapeString(md))
}

// Format renders results as the numbered text block handed back to the model.
func Format(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No search results found for query: %s", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search Results for '%s':\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, orDefault(r.Title, "No title"))
		fmt.Fprintf(&b, "   URL: %s\n", orDefault(r.URL, "No URL"))
		fmt.Fprintf(&b, "   %s\n\n", orDefault(r.Description, "No description"))
	}
	return strings.TrimRight(b.String(), "\n")
}
