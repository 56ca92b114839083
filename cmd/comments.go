package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/laelblog/blogctl/pkg/pool"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultWorkers = 4

// commentsCmd groups the moderation commands.
func commentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and moderate comments",
	}

	cmd.AddCommand(
		listCommentsCmd(a),
		commentTreeCmd(a),
		createCommentCmd(a),
		editCommentCmd(a),
		moderateCommentsCmd(a),
		deleteCommentsCmd(a),
		commentStatsCmd(a),
	)

	return cmd
}

func listCommentsCmd(a *app) *cobra.Command {
	var page, limit, postID int
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List comments in the moderation queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidatePage(page, limit); err != nil {
				return invalid(err)
			}
			if status != "" {
				if err := validation.ValidateCommentStatus(status); err != nil {
					return invalid(err)
				}
			}
			res, err := a.client.ListAdminComments(cmd.Context(), client.AdminCommentQuery{
				Page: page, Limit: limit, Status: status, PostID: postID,
			})
			if err != nil {
				return err
			}
			if len(res.Data) == 0 && a.output == outputTable {
				cmd.Println("No comments found.")
				return nil
			}
			return a.render(cmd, res, func(w io.Writer) {
				table := newTable(w, "ID", "Post", "Author", "Status", "Comment", "Created")
				for _, c := range res.Data {
					table.Append([]string{
						strconv.Itoa(c.ID),
						strconv.Itoa(c.PostID),
						c.AuthorName,
						c.Status,
						oneLine(c.Content, 50),
						formatTime(c.CreatedAt),
					})
				}
				table.Render()
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page number (server default when 0)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Items per page, at most 100 (server default when 0)")
	cmd.Flags().IntVar(&postID, "post", 0, "Only comments on this post")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only comments with this status [pending, approved, spam, trash]")

	return cmd
}

// commentTreeCmd prints the approved comments of a post as threads.
func commentTreeCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tree <post-id>",
		Short: "Show the comment threads of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidatePage(1, limit); err != nil {
				return invalid(err)
			}
			res, err := a.client.ListComments(cmd.Context(), postID, 1, limit, false)
			if err != nil {
				return err
			}
			roots := client.BuildCommentTree(res.Data)
			if len(roots) == 0 && a.output == outputTable {
				cmd.Println("No comments yet.")
				return nil
			}
			return a.render(cmd, roots, func(w io.Writer) {
				printThread(w, roots, 0)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", validation.MaxPageLimit, "Maximum number of comments to fetch")

	return cmd
}

func printThread(w io.Writer, comments []*client.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range comments {
		fmt.Fprintf(w, "%s- [%d] %s (%s): %s\n", indent, c.ID, c.AuthorName, formatTime(c.CreatedAt), oneLine(c.Content, 0))
		printThread(w, c.Replies, depth+1)
	}
}

func createCommentCmd(a *app) *cobra.Command {
	var in client.CommentInput
	var parent int

	cmd := &cobra.Command{
		Use:   "create <post-id>",
		Short: "Post a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidateNonEmptyString("name", in.AuthorName); err != nil {
				return invalid(err)
			}
			if err := validation.ValidateNonEmptyString("content", in.Content); err != nil {
				return invalid(err)
			}
			if in.AuthorEmail != "" {
				if err := validation.ValidateEmail(in.AuthorEmail); err != nil {
					return invalid(err)
				}
			}
			in.PostID = postID
			if parent > 0 {
				in.ParentID = &parent
			}
			c, err := a.client.CreateComment(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), c)
			}
			cmd.Printf("Created comment %d (%s).\n", c.ID, c.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.AuthorName, "name", "n", "", "Author name")
	cmd.Flags().StringVarP(&in.AuthorEmail, "email", "e", "", "Author email")
	cmd.Flags().StringVarP(&in.Content, "content", "c", "", "Comment text")
	cmd.Flags().IntVar(&parent, "reply-to", 0, "ID of the comment being answered")

	return cmd
}

func editCommentCmd(a *app) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the text of a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidateNonEmptyString("content", text); err != nil {
				return invalid(err)
			}
			c, err := a.client.UpdateComment(cmd.Context(), id, text)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), c)
			}
			cmd.Printf("Updated comment %d.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "content", "c", "", "New comment text")

	return cmd
}

func moderateCommentsCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "moderate <status> <id>...",
		Short: "Set the status of one or more comments",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := args[0]
			if err := validation.ValidateCommentStatus(status); err != nil {
				return invalid(err)
			}
			ids, err := parseIDs("comment", args[1:])
			if err != nil {
				return err
			}
			return a.bulk(cmd, ids, workers, "Moderated", func(ctx context.Context, id int) error {
				_, err := a.client.ModerateComment(ctx, id, status)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers, "Number of concurrent requests [1-20]")

	return cmd
}

func deleteCommentsCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more comments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs("comment", args)
			if err != nil {
				return err
			}
			return a.bulk(cmd, ids, workers, "Deleted", a.client.DeleteComment)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers, "Number of concurrent requests [1-20]")

	return cmd
}

// bulk applies fn to every comment id on a worker pool and prints one line
// per id plus a summary. Once the server rate-limits one request the client
// refuses the rest locally, and the summary says how long to wait.
func (a *app) bulk(cmd *cobra.Command, ids []int, workers int, verb string, fn pool.WorkerFunc[int]) error {
	if err := validation.ValidateWorkerCount(workers); err != nil {
		return invalid(err)
	}

	results := pool.Run(cmd.Context(), ids, workers, fn)

	var failed, limited int
	for _, r := range results {
		switch {
		case r.Err == nil:
			cmd.Printf("%s comment %d.\n", verb, r.Item)
		case client.IsRateLimited(r.Err):
			limited++
			failed++
		default:
			failed++
			log.Error().Err(r.Err).Int("id", r.Item).Msg("Comment operation failed")
			cmd.PrintErrf("Comment %d: %s\n", r.Item, clierr.FromAPI(r.Err).Message)
		}
	}

	if failed == 0 {
		return nil
	}
	cmd.PrintErrf("%d of %d comments failed.\n", failed, len(ids))
	if limited > 0 {
		wait := a.client.RateLimitWait()
		return clierr.New(clierr.RateLimited,
			fmt.Sprintf("%d comments were skipped because of rate limiting. Try again in %d seconds.", limited, wait),
			client.NewRateLimitError("Rate limited", wait))
	}
	return clierr.New(clierr.API, fmt.Sprintf("%d comments could not be processed.", failed), pool.Errors(results)[0])
}

func commentStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count comments by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client.CommentStats(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, stats, func(w io.Writer) {
				table := newTable(w, "Status", "Count")
				table.Append([]string{client.CommentPending, strconv.Itoa(stats.Pending)})
				table.Append([]string{client.CommentApproved, strconv.Itoa(stats.Approved)})
				table.Append([]string{client.CommentSpam, strconv.Itoa(stats.Spam)})
				table.Append([]string{client.CommentTrash, strconv.Itoa(stats.Trash)})
				table.SetFooter([]string{"total", strconv.Itoa(stats.Total)})
				table.Render()
			})
		},
	}
}
