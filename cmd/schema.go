package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/spf13/cobra"
)

// schemaCmd groups the database maintenance commands.
func schemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Check and repair the backend database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Compare the live database with the expected schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.client.ValidateSchema(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, v, func(w io.Writer) {
					if len(v.Issues) == 0 {
						fmt.Fprintln(w, "Schema is valid.")
						return
					}
					printIssues(w, v.Issues)
				})
			},
		},
		&cobra.Command{
			Use:   "fix",
			Short: "Repair every fixable schema issue",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.client.FixSchema(cmd.Context(), nil)
				if err != nil {
					return err
				}
				if err := a.render(cmd, res, func(w io.Writer) {
					if res.Message != "" {
						fmt.Fprintln(w, res.Message)
					}
					fmt.Fprintf(w, "Fixed %d issues.\n", res.Fixed)
					for _, f := range res.Failed {
						fmt.Fprintf(w, "  failed: %s\n", f)
					}
				}); err != nil {
					return err
				}
				if len(res.Failed) > 0 {
					return clierr.New(clierr.API, fmt.Sprintf("Schema repair incomplete: %d issues could not be fixed.", len(res.Failed)), nil)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Show tables, indexes and row counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				info, err := a.client.DatabaseInfo(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, info, func(w io.Writer) {
					printDatabaseInfo(w, info)
				})
			},
		},
	)

	return cmd
}

func printIssues(w io.Writer, issues []client.SchemaIssue) {
	table := newTable(w, "Severity", "Type", "Object", "Expected", "Actual", "Fixable")
	for _, is := range issues {
		table.Append([]string{
			orDash(is.Severity),
			is.Type,
			orDash(schemaObject(is)),
			oneLine(is.Expected, 40),
			orDash(oneLine(is.Actual, 40)),
			yesNo(is.Fixable),
		})
	}
	table.Render()
}

// schemaObject names what an issue is about: table.column, an index, or a
// table.
func schemaObject(is client.SchemaIssue) string {
	switch {
	case is.Index != "":
		return is.Index
	case is.Column != "":
		return is.Table + "." + is.Column
	default:
		return is.Table
	}
}

// printDatabaseInfo lists row counts when the backend has them, table names
// otherwise.
func printDatabaseInfo(w io.Writer, info *client.DatabaseInfo) {
	table := newTable(w, "Table", "Rows")
	if len(info.TableStats) > 0 {
		for _, t := range info.TableStats {
			table.Append([]string{t.Name, strconv.Itoa(t.RowCount)})
		}
	} else {
		for _, t := range info.Tables {
			table.Append([]string{t.Name, "-"})
		}
	}
	table.Render()

	tables, indexes := info.TotalTables, info.TotalIndexes
	if tables == 0 {
		tables = len(info.Tables)
	}
	if indexes == 0 {
		indexes = len(info.Indexes)
	}
	fmt.Fprintf(w, "%d tables, %d indexes\n", tables, indexes)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
