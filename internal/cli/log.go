package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	After int64
	Limit int
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the reducer call log",
		Long: `Show committed reducer calls in seq order.

Every successful reducer call is logged with its arguments and result, in
the same transaction as its writes. Rejected calls are not logged.

Examples:
  analytics log
  analytics log --after 120 --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only show calls with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum calls to show (0 = no limit)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	calls, err := st.ReadReducerCalls(commandContext(cmd), opts.After, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read reducer log", err)
	}

	return newFormatter(opts.RootOptions, cmd).Success(calls, func(w io.Writer) error {
		if len(calls) == 0 {
			_, err := fmt.Fprintln(w, "No reducer calls logged.")
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tCALLED AT\tREDUCER\tARGS\tRESULT")
		for _, c := range calls {
			argsJSON, err := json.Marshal(c.Args)
			if err != nil {
				return err
			}
			resultJSON, err := json.Marshal(c.Result)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				c.Seq,
				time.UnixMicro(c.CalledAt).UTC().Format(time.RFC3339Nano),
				c.Reducer,
				argsJSON,
				resultJSON,
			)
		}
		return tw.Flush()
	})
}
