package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivanyeors/ai-analytics-platform/internal/engine"
	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// withEngine opens the engine, runs fn, and closes the store.
func withEngine(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	ctx := commandContext(cmd)
	eng, st, err := opts.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.Logger().Error("error closing database", "error", closeErr)
		}
	}()
	return fn(ctx, eng)
}

// reducerFailed reports a rejected reducer call. In JSON mode the error is
// also written to stdout as a CLIResponse.
func reducerFailed(f *OutputFormatter, reducer string, err error) error {
	if f.Format == "json" {
		_ = f.Error("E_REDUCER", err.Error(), map[string]string{"reducer": reducer})
	}
	return WrapExitError(ExitFailure, "reducer failed", err)
}

// NewAddPointCommand creates the add-point command.
func NewAddPointCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-point <category> <value>",
		Short: "Add a data point (add_data_point)",
		Long: `Add a data point with a generated id and the current time.

An unknown category is created with an auto-generated description and the
default color.

Example:
  analytics add-point Revenue 1250.5`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid value %q: must be a number", args[1]))
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				id, err := eng.AddDataPoint(ctx, args[0], value)
				if err != nil {
					return reducerFailed(f, model.ReducerAddDataPoint, err)
				}
				return f.Success(map[string]any{"id": formatID(id)}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "added data point %d\n", id)
					return err
				})
			})
		},
	}
}

// NewAddCategoryCommand creates the add-category command.
func NewAddCategoryCommand(opts *RootOptions) *cobra.Command {
	var description, color string

	cmd := &cobra.Command{
		Use:   "add-category <name>",
		Short: "Create or overwrite a category (add_category)",
		Long: `Create a category, or overwrite the description and color of an
existing one.

Example:
  analytics add-category Revenue --description "Monthly revenue" --color "#1f77b4"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				if err := eng.AddCategory(ctx, args[0], description, color); err != nil {
					return reducerFailed(f, model.ReducerAddCategory, err)
				}
				cat := model.Category{Name: model.NormalizeName(args[0]), Description: description, Color: color}
				return f.Success(cat, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "saved category %s\n", cat.Name)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "category description")
	cmd.Flags().StringVar(&color, "color", model.DefaultColor, "display color")

	return cmd
}

// NewUpdatePointCommand creates the update-point command.
func NewUpdatePointCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-point <id>",
		Short: "Change a data point's category and/or value (update_data_point)",
		Long: `Change the category and/or value of an existing data point.

A flag that is not given leaves that field unchanged. Moving a point to an
unknown category creates the category.

Examples:
  analytics update-point 8123772 --value 42
  analytics update-point 8123772 --category Users`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			category, err := optionalString(cmd.Flags(), "category")
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --category", err)
			}
			value, err := optionalFloat(cmd.Flags(), "value")
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --value", err)
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				ok, err := eng.UpdateDataPoint(ctx, id, category, value)
				if err != nil {
					return reducerFailed(f, model.ReducerUpdateDataPoint, err)
				}
				return f.Success(map[string]any{"id": formatID(id), "updated": ok}, func(w io.Writer) error {
					return writeOutcome(w, ok, fmt.Sprintf("updated data point %d", id), fmt.Sprintf("data point %d not found", id))
				})
			})
		},
	}

	cmd.Flags().String("category", "", "new category")
	cmd.Flags().Float64("value", 0, "new value")

	return cmd
}

// NewDeletePointCommand creates the delete-point command.
func NewDeletePointCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete-point <id>",
		Short:         "Delete a data point (delete_data_point)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				ok, err := eng.DeleteDataPoint(ctx, id)
				if err != nil {
					return reducerFailed(f, model.ReducerDeleteDataPoint, err)
				}
				return f.Success(map[string]any{"id": formatID(id), "deleted": ok}, func(w io.Writer) error {
					return writeOutcome(w, ok, fmt.Sprintf("deleted data point %d", id), fmt.Sprintf("data point %d not found", id))
				})
			})
		},
	}
}

// NewDeleteCategoryCommand creates the delete-category command.
func NewDeleteCategoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-category <name>",
		Short: "Delete a category and resolve its data points (delete_category)",
		Long: `Delete a category.

With --reassign-to, every data point in the category moves to the target
category (created if unknown). Without it, every data point in the category
is deleted.

Examples:
  analytics delete-category Legacy --reassign-to Revenue
  analytics delete-category Scratch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reassignTo, err := optionalString(cmd.Flags(), "reassign-to")
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --reassign-to", err)
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				ok, err := eng.DeleteCategory(ctx, args[0], reassignTo)
				if err != nil {
					return reducerFailed(f, model.ReducerDeleteCategory, err)
				}
				name := model.NormalizeName(args[0])
				return f.Success(map[string]any{"name": name, "deleted": ok}, func(w io.Writer) error {
					return writeOutcome(w, ok, "deleted category "+name, "category "+name+" not found")
				})
			})
		},
	}

	cmd.Flags().String("reassign-to", "", "move data points to this category instead of deleting them")

	return cmd
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(opts *RootOptions) *cobra.Command {
	var points uint32

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Seed sample categories and random data points (generate_sample_data)",
		Long: `Seed the Revenue, Users, Engagement and Conversion categories (if
missing) and add random data points across them.

The default point count comes from the config file (sample.points).

Example:
  analytics generate --points 500`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("points") {
				points = opts.sampleDefault()
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				if err := eng.GenerateSampleData(ctx, points); err != nil {
					return reducerFailed(f, model.ReducerGenerateSampleData, err)
				}
				return f.Success(map[string]any{"points": points}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "generated %d sample data points\n", points)
					return err
				})
			})
		},
	}

	cmd.Flags().Uint32Var(&points, "points", 0, "number of data points (default from config)")

	return cmd
}

// NewCallCommand creates the call command.
func NewCallCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <reducer> [args-json]",
		Short: "Call a reducer by name with JSON arguments",
		Long: fmt.Sprintf(`Call a reducer by its logged name.

Arguments are a JSON object. Ids may be given as numbers or decimal strings;
ids in the output are decimal strings.

Reducers: %v

Example:
  analytics call delete_category '{"name":"Legacy","reassign_to":"Revenue"}'`, engine.Reducers()),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{}
			if len(args) == 2 {
				dec := json.NewDecoder(bytes.NewReader([]byte(args[1])))
				dec.UseNumber() // keep ids above 2^53 exact
				if err := dec.Decode(&callArgs); err != nil {
					return WrapExitError(ExitCommandError, "invalid args JSON", err)
				}
			}

			f := newFormatter(opts, cmd)
			return withEngine(opts, cmd, func(ctx context.Context, eng *engine.Engine) error {
				result, err := eng.Call(ctx, args[0], callArgs)
				if errors.Is(err, engine.ErrUnknownReducer) || errors.Is(err, engine.ErrInvalidArgs) {
					return WrapExitError(ExitCommandError, "invalid call", err)
				}
				if err != nil {
					return reducerFailed(f, args[0], err)
				}
				if id, ok := result.(uint64); ok {
					result = formatID(id)
				}
				return f.Success(map[string]any{"reducer": args[0], "result": result}, func(w io.Writer) error {
					if result == nil {
						result = "ok"
					}
					_, err := fmt.Fprintf(w, "%s: %v\n", args[0], result)
					return err
				})
			})
		},
	}
}

// writeOutcome prints the success or not-found line for a boolean reducer.
func writeOutcome(w io.Writer, ok bool, done, missing string) error {
	msg := done
	if !ok {
		msg = missing
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}
