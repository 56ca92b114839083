package cmd

import (
	"fmt"
	"net/url"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/content"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/spf13/cobra"
)

const sitemapPageSize = validation.MaxPageLimit

// sitemapCmd writes a sitemap of every published post and page to stdout.
func sitemapCmd(a *app) *cobra.Command {
	var siteURL, stylesheet string

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Print an XML sitemap of the published content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(siteURL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return invalid(fmt.Errorf("site URL must be absolute, got %q", siteURL))
			}

			entries := []content.SitemapEntry{{Path: "/", ChangeFreq: "daily", Priority: 1}}
			published := true
			for _, postType := range []string{client.TypePost, client.TypePage} {
				for page := 1; ; page++ {
					q := client.PostQuery{Page: page, Limit: sitemapPageSize, Published: &published, Type: postType}
					res, err := a.client.ListPosts(cmd.Context(), q)
					if err != nil {
						return err
					}
					for _, p := range res.Data {
						entries = append(entries, sitemapEntry(p, postType))
					}
					if !res.Pagination.HasNext || len(res.Data) == 0 {
						break
					}
				}
			}

			return content.WriteSitemap(cmd.OutOrStdout(), siteURL, stylesheet, entries)
		},
	}

	cmd.Flags().StringVar(&siteURL, "site-url", "", "Public URL of the site, e.g. https://blog.example.com")
	cmd.Flags().StringVar(&stylesheet, "stylesheet", "/sitemap.xsl", "XSL stylesheet referenced by the sitemap, empty for none")
	_ = cmd.MarkFlagRequired("site-url")

	return cmd
}

func sitemapEntry(p client.Post, postType string) content.SitemapEntry {
	if postType == client.TypePage {
		return content.SitemapEntry{Path: "/" + p.Slug, LastMod: p.UpdatedAt, ChangeFreq: "monthly", Priority: 0.6}
	}
	return content.SitemapEntry{Path: "/posts/" + p.Slug, LastMod: p.UpdatedAt, ChangeFreq: "weekly", Priority: 0.8}
}
