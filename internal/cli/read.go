package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivanyeors/ai-analytics-platform/internal/query"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List queryable tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := query.Tables()
			return newFormatter(opts, cmd).Success(tables, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, strings.Join(tables, "\n"))
				return err
			})
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show a table's columns and types",
		Long: `Show a table's columns and types.

Example:
  analytics schema DataPoint`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := query.Schema(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "schema", err)
			}
			return newFormatter(opts, cmd).Success(cols, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "COLUMN\tTYPE")
				for _, c := range cols {
					fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Type)
				}
				return tw.Flush()
			})
		},
	}
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Where  []string
	Limit  int
	Offset int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Read rows from a table",
		Long: `Read rows from a table in primary key order.

Filters are exact matches on public column names and are combined with AND.
Category names are compared after NFC normalization. Timestamps are written
in RFC 3339; in JSON output ids are decimal strings.

Examples:
  analytics query Category
  analytics query DataPoint --where category=Revenue --limit 10
  analytics query DataPoint --where id=8123772 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value filter (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return (0 = no limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

func runQuery(opts *QueryOptions, table string, cmd *cobra.Command) error {
	filters, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}
	req := query.Request{Table: table, Filters: filters, Limit: opts.Limit, Offset: opts.Offset}

	// Reject bad requests before touching the database.
	if _, err := query.Build(req); err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := query.Run(commandContext(cmd), st, req)
	if err != nil {
		if errors.Is(err, query.ErrInvalidValue) {
			return WrapExitError(ExitCommandError, "invalid query", err)
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}

	cols, _ := query.Schema(table)
	return newFormatter(opts.RootOptions, cmd).Success(jsonRows(cols, rows), func(w io.Writer) error {
		return writeRows(w, cols, rows)
	})
}

// jsonRows copies rows for JSON output with u64 columns as decimal strings.
func jsonRows(cols []query.Column, rows []query.Row) []query.Row {
	out := make([]query.Row, len(rows))
	for i, row := range rows {
		r := make(query.Row, len(row))
		for k, v := range row {
			r[k] = v
		}
		for _, c := range cols {
			if id, ok := r[c.Name].(uint64); ok && c.Type == query.TypeU64 {
				r[c.Name] = formatID(id)
			}
		}
		out[i] = r
	}
	return out
}

// writeRows renders rows as an aligned table with a header line.
func writeRows(w io.Writer, cols []query.Column, rows []query.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c.Name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatCell(row[c.Name])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

func formatCell(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
