package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/content"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// postsCmd groups the commands that manage blog posts.
func postsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage blog posts",
	}

	cmd.AddCommand(
		listPostsCmd(a, client.TypePost),
		showPostCmd(a),
		createPostCmd(a, client.TypePost),
		updatePostCmd(a, client.TypePost),
		deletePostsCmd(a, client.TypePost),
		publishCmd(a, true),
		publishCmd(a, false),
	)

	return cmd
}

// pagesCmd groups the commands that manage static pages.
func pagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage static pages",
	}

	cmd.AddCommand(
		listPostsCmd(a, client.TypePage),
		showPageCmd(a),
		createPostCmd(a, client.TypePage),
		updatePostCmd(a, client.TypePage),
		deletePostsCmd(a, client.TypePage),
	)

	return cmd
}

func listPostsCmd(a *app, postType string) *cobra.Command {
	var page, limit int
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss", postType),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidatePage(page, limit); err != nil {
				return invalid(err)
			}
			q := client.PostQuery{Page: page, Limit: limit, Type: postType}
			switch status {
			case "all":
			case "published", "draft":
				published := status == "published"
				q.Published = &published
			default:
				return invalid(fmt.Errorf("invalid status: %s (must be one of: all, published, draft)", status))
			}

			var res *client.Paginated[client.Post]
			var err error
			if postType == client.TypePage {
				res, err = a.client.ListPages(cmd.Context(), q)
			} else {
				res, err = a.client.ListPosts(cmd.Context(), q)
			}
			if err != nil {
				return err
			}

			if len(res.Data) == 0 && a.output == outputTable {
				cmd.Printf("No %ss found.\n", postType)
				return nil
			}
			return a.render(cmd, res, func(w io.Writer) {
				table := newTable(w, "ID", "Title", "Slug", "Published", "Updated")
				for _, p := range res.Data {
					table.Append([]string{
						strconv.Itoa(p.ID),
						oneLine(p.Title, 60),
						p.Slug,
						yesNo(p.Published),
						formatTime(p.UpdatedAt),
					})
				}
				table.Render()
				pg := res.Pagination
				if pg.TotalPages > 1 {
					fmt.Fprintf(w, "Page %d of %d (%d total)\n", pg.Page, pg.TotalPages, pg.Total)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page number (server default when 0)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Items per page, at most 100 (server default when 0)")
	cmd.Flags().StringVarP(&status, "status", "s", "all", "Filter by status [all, published, draft]")

	return cmd
}

func showPostCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post rendered as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			post, err := a.client.GetPost(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printPost(cmd, post, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored body without converting it to Markdown")

	return cmd
}

// showPageCmd accepts either a numeric id or a slug.
func showPageCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show a page rendered as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var page *client.Post
			var err error
			if id, convErr := strconv.Atoi(args[0]); convErr == nil {
				if err := validation.ValidateID("page", id); err != nil {
					return invalid(err)
				}
				page, err = a.client.GetPage(cmd.Context(), id)
			} else {
				page, err = a.client.GetPageBySlug(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return a.printPost(cmd, page, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored body without converting it to Markdown")

	return cmd
}

func (a *app) printPost(cmd *cobra.Command, post *client.Post, raw bool) error {
	if a.output == outputJSON {
		return printJSON(cmd.OutOrStdout(), post)
	}

	body := post.Content
	if !raw {
		md, err := content.ToMarkdown(post.Content, post.ContentFormat)
		if err != nil {
			log.Warn().Err(err).Int("id", post.ID).Msg("Showing stored body instead of Markdown")
		} else {
			body = md
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s\n\n", post.Title)
	fmt.Fprintf(w, "ID: %d | Slug: %s | Published: %s | Updated: %s\n", post.ID, post.Slug, yesNo(post.Published), formatTime(post.UpdatedAt))
	fmt.Fprintf(w, "%s\n\n", content.FormatReadingTime(content.ReadingTime(post.Content)))
	fmt.Fprintln(w, body)
	return nil
}

// postFields are the flags shared by create and update.
type postFields struct {
	title, body, file, format, summary, slug, template string
	parent, order                                      int
	published                                          bool
}

func (f *postFields) register(cmd *cobra.Command, postType string) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&f.body, "content", "c", "", "Body text")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the body from a file, - for standard input")
	cmd.Flags().StringVar(&f.format, "format", client.FormatHTML, "Content format [html, markdown, visual]")
	cmd.Flags().StringVar(&f.summary, "summary", "", "Short summary")
	cmd.Flags().StringVar(&f.slug, "slug", "", "URL slug (derived from the title when empty)")
	cmd.Flags().BoolVar(&f.published, "publish", false, "Publish immediately")
	if postType == client.TypePage {
		cmd.Flags().IntVar(&f.parent, "parent", 0, "ID of the parent page")
		cmd.Flags().IntVar(&f.order, "order", 0, "Position among sibling pages")
		cmd.Flags().StringVar(&f.template, "template", "", "Page template")
	}
}

// readBody returns the body from --content or --file.
func (f *postFields) readBody(cmd *cobra.Command) (string, error) {
	if f.file == "" {
		return f.body, nil
	}
	if f.body != "" {
		return "", invalid(fmt.Errorf("use either --content or --file, not both"))
	}
	var data []byte
	var err error
	if f.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(f.file)
	}
	if err != nil {
		return "", invalid(fmt.Errorf("failed to read %s: %w", f.file, err))
	}
	return string(data), nil
}

func createPostCmd(a *app, postType string) *cobra.Command {
	var f postFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", postType),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("title", f.title); err != nil {
				return invalid(err)
			}
			if err := validation.ValidateContentFormat(f.format); err != nil {
				return invalid(err)
			}
			body, err := f.readBody(cmd)
			if err != nil {
				return err
			}

			in := client.PostInput{
				Title:         f.title,
				Content:       body,
				ContentFormat: f.format,
				Summary:       f.summary,
				Slug:          f.slug,
				MenuOrder:     f.order,
				PageTemplate:  f.template,
				Published:     f.published,
			}
			if f.parent > 0 {
				in.ParentID = &f.parent
			}

			var post *client.Post
			if postType == client.TypePage {
				post, err = a.client.CreatePage(cmd.Context(), in)
			} else {
				post, err = a.client.CreatePost(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), post)
			}
			cmd.Printf("Created %s %d (%s).\n", postType, post.ID, post.Slug)
			return nil
		},
	}

	f.register(cmd, postType)

	return cmd
}

// updatePostCmd sends only the fields whose flags were given.
func updatePostCmd(a *app, postType string) *cobra.Command {
	var f postFields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update fields of a %s", postType),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(postType, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var up client.PostUpdate
			if flags.Changed("title") {
				if err := validation.ValidateNonEmptyString("title", f.title); err != nil {
					return invalid(err)
				}
				up.Title = &f.title
			}
			if flags.Changed("content") || flags.Changed("file") {
				body, err := f.readBody(cmd)
				if err != nil {
					return err
				}
				up.Content = &body
			}
			if flags.Changed("format") {
				if err := validation.ValidateContentFormat(f.format); err != nil {
					return invalid(err)
				}
				up.ContentFormat = &f.format
			}
			if flags.Changed("summary") {
				up.Summary = &f.summary
			}
			if flags.Changed("slug") {
				up.Slug = &f.slug
			}
			if flags.Changed("publish") {
				up.Published = &f.published
			}
			if flags.Changed("parent") {
				if f.parent == id {
					return invalid(fmt.Errorf("a page cannot be its own parent"))
				}
				up.ParentID = &f.parent
			}
			if flags.Changed("order") {
				up.MenuOrder = &f.order
			}
			if flags.Changed("template") {
				up.PageTemplate = &f.template
			}
			if up == (client.PostUpdate{}) {
				return invalid(fmt.Errorf("nothing to update, pass at least one field flag"))
			}

			var post *client.Post
			if postType == client.TypePage {
				post, err = a.client.UpdatePage(cmd.Context(), id, up)
			} else {
				post, err = a.client.UpdatePost(cmd.Context(), id, up)
			}
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), post)
			}
			cmd.Printf("Updated %s %d.\n", postType, post.ID)
			return nil
		},
	}

	f.register(cmd, postType)

	return cmd
}

func deletePostsCmd(a *app, postType string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: fmt.Sprintf("Delete one or more %ss", postType),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(postType, args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if postType == client.TypePage {
					err = a.client.DeletePage(cmd.Context(), id)
				} else {
					err = a.client.DeletePost(cmd.Context(), id)
				}
				if err != nil {
					return fmt.Errorf("deleting %s %d: %w", postType, id, err)
				}
				cmd.Printf("Deleted %s %d.\n", postType, id)
			}
			return nil
		},
	}
}

func publishCmd(a *app, publish bool) *cobra.Command {
	use, short, verb := "publish", "Publish a post", "Published"
	if !publish {
		use, short, verb = "unpublish", "Unpublish a post", "Unpublished"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			if _, err := a.client.UpdatePost(cmd.Context(), id, client.PostUpdate{Published: &publish}); err != nil {
				return err
			}
			cmd.Printf("%s post %d.\n", verb, id)
			return nil
		},
	}
}

func listRevisionsCmd(a *app) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list <post-id>",
		Short: "List the revisions of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidatePage(page, limit); err != nil {
				return invalid(err)
			}
			res, err := a.client.ListRevisions(cmd.Context(), postID, page, limit)
			if err != nil {
				return err
			}
			if len(res.Data) == 0 && a.output == outputTable {
				cmd.Println("No revisions found.")
				return nil
			}
			return a.render(cmd, res, func(w io.Writer) {
				table := newTable(w, "ID", "Revision", "Title", "Created")
				for _, r := range res.Data {
					table.Append([]string{
						strconv.Itoa(r.ID),
						strconv.Itoa(r.RevisionNumber),
						oneLine(r.Title, 60),
						formatTime(r.CreatedAt),
					})
				}
				table.Render()
				if pg := res.Pagination; pg.TotalPages > 1 {
					fmt.Fprintf(w, "Page %d of %d (%d total)\n", pg.Page, pg.TotalPages, pg.Total)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page number (first page when 0)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Revisions per page, at most 100 (20 when 0)")

	return cmd
}

// revisionsCmd groups the commands that browse and restore post history.
func revisionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revisions",
		Short: "Browse and restore post revisions",
	}

	cmd.AddCommand(
		listRevisionsCmd(a),
		&cobra.Command{
			Use:   "show <post-id> <revision-id>",
			Short: "Show one revision",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				postID, revID, err := parseRevisionArgs(args)
				if err != nil {
					return err
				}
				rev, err := a.client.GetRevision(cmd.Context(), postID, revID)
				if err != nil {
					return err
				}
				return a.render(cmd, rev, func(w io.Writer) {
					fmt.Fprintf(w, "# %s\n\n", rev.Title)
					fmt.Fprintf(w, "Revision %d of post %d, saved %s\n\n", rev.RevisionNumber, rev.PostID, formatTime(rev.CreatedAt))
					fmt.Fprintln(w, rev.Content)
				})
			},
		},
		&cobra.Command{
			Use:   "restore <post-id> <revision-id>",
			Short: "Restore a post to a revision",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				postID, revID, err := parseRevisionArgs(args)
				if err != nil {
					return err
				}
				if _, err := a.client.RestoreRevision(cmd.Context(), postID, revID); err != nil {
					return err
				}
				cmd.Printf("Restored post %d to revision %d.\n", postID, revID)
				return nil
			},
		},
	)

	return cmd
}

func parseRevisionArgs(args []string) (int, int, error) {
	postID, err := parseID("post", args[0])
	if err != nil {
		return 0, 0, err
	}
	revID, err := parseID("revision", args[1])
	if err != nil {
		return 0, 0, err
	}
	return postID, revID, nil
}
