package content

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapEntry is one published URL.
type SitemapEntry struct {
	Path       string // site-relative, e.g. /posts/hello
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// WriteSitemap writes a sitemap for siteURL. When stylesheet is set, an
// xml-stylesheet processing instruction points browsers at it.
func WriteSitemap(w io.Writer, siteURL, stylesheet string, entries []SitemapEntry) error {
	base := strings.TrimRight(siteURL, "/")
	set := urlset{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(entries))}
	for _, e := range entries {
		u := sitemapURL{Loc: base + "/" + strings.TrimLeft(e.Path, "/"), ChangeFreq: e.ChangeFreq}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		if e.Priority > 0 {
			u.Priority = fmt.Sprintf("%.1f", e.Priority)
		}
		set.URLs = append(set.URLs, u)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if stylesheet != "" {
		if _, err := fmt.Fprintf(w, "<?xml-stylesheet type=\"text/xsl\" href=%q?>\n", stylesheet); err != nil {
			return err
		}
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
