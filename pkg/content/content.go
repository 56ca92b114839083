// Package content renders stored post bodies for the terminal and for
// feeds: HTML to Markdown, reading-time estimates and sitemaps.
package content

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// WordsPerMinute is the reading speed reading times are based on.
const WordsPerMinute = 200

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ToMarkdown converts a post body to Markdown. Markdown bodies pass
// through unchanged; html and visual bodies are converted.
func ToMarkdown(body, format string) (string, error) {
	if format == "markdown" {
		return body, nil
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// PlainText strips tags and decodes entities.
func PlainText(body string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(body, " "))
}

// ReadingTime estimates minutes to read body, never less than one.
func ReadingTime(body string) int {
	words := len(strings.Fields(PlainText(body)))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FormatReadingTime renders a reading time such as "3 min read".
func FormatReadingTime(minutes int) string {
	return fmt.Sprintf("%d min read", minutes)
}

// Summary returns at most maxRunes of body's plain text, cut at a word
// boundary with an ellipsis when shortened.
func Summary(body string, maxRunes int) string {
	text := strings.Join(strings.Fields(PlainText(body)), " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
