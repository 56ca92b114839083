package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// render prints v as JSON when --output=json, otherwise calls table.
func (a *app) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	if a.output == outputJSON {
		return printJSON(cmd.OutOrStdout(), v)
	}
	table(cmd.OutOrStdout())
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a left-aligned table without row separators.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// oneLine collapses line breaks so a value fits in a table cell.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); max > 0 && len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optionalInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

// invalid marks err as bad user input.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return clierr.New(clierr.Validation, err.Error(), err)
}

// parseID parses a positional id argument.
func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, invalid(fmt.Errorf("%s ID must be a positive integer, got %q", kind, arg))
	}
	if err := validation.ValidateID(kind, id); err != nil {
		return 0, invalid(err)
	}
	return id, nil
}

// parseIDs parses every argument as an id.
func parseIDs(kind string, args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
