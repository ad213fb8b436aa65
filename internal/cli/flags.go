package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bqport/bqport/internal/warehouse"
)

// parseLabels turns repeated --label key:value flags into a label map.
func parseLabels(raw []string) (map[string]string, error) {
	labels := make(map[string]string, len(raw))
	for _, l := range raw {
		k, v, ok := strings.Cut(l, ":")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --label %q: want key:value", l)
		}
		labels[k] = v
	}
	return labels, nil
}

// parseParameters turns repeated --parameter name:type:value flags into
// query parameters. type is INTEGER, STRING, or NULL.
func parseParameters(raw []string) ([]warehouse.Param, error) {
	params := make([]warehouse.Param, 0, len(raw))
	for _, p := range raw {
		parts := strings.SplitN(p, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --parameter %q: want name:type:value", p)
		}
		name, typ, value := parts[0], strings.ToUpper(parts[1]), parts[2]

		param := warehouse.Param{Name: name, Type: typ}
		switch typ {
		case "INTEGER":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --parameter %q: %w", p, err)
			}
			param.Value = n
		case "STRING":
			param.Value = value
		case "NULL":
			param.Value = nil
		default:
			return nil, fmt.Errorf("invalid --parameter %q: unknown type %q", p, typ)
		}
		params = append(params, param)
	}
	return params, nil
}
