package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// optionalString returns the flag's value if it was set on the command
// line, or nil if it was left out. An explicitly empty value is not nil.
func optionalString(fs *pflag.FlagSet, name string) (*string, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// optionalFloat is optionalString for float64 flags.
func optionalFloat(fs *pflag.FlagSet, name string) (*float64, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	v, err := fs.GetFloat64(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseID parses a data point id argument.
func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q: must be an unsigned 64-bit integer", s))
	}
	return id, nil
}

// formatID renders an id for JSON output. Ids are decimal strings, as in the
// reducer call log, because JSON numbers lose precision above 2^53.
func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// parseWhere turns repeated key=value flags into query filters. Values stay
// strings; the query package coerces them to the column type.
func parseWhere(pairs []string) (map[string]any, error) {
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --where %q: want column=value", pair))
		}
		if _, dup := filters[key]; dup {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("duplicate --where column %q", key))
		}
		filters[key] = value
	}
	return filters, nil
}
