package options

import (
	"strings"

	"github.com/google/shlex"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/render"
)

const maxGraphs = 20

// ParseGraphSpecs parses a whitespace separated list of
// name:color[:role] entries, for example
//
//	Other:d61d00:other Google:89a54e "Social Media":3b5998
//
// Names containing spaces are shell-quoted. Role is "other" or
// "total"; at most one of each may be declared.
func ParseGraphSpecs(s string) ([]chart.GraphSpec, error) {
	tokens, err := shlex.Split(s)
	if err != nil {
		return nil, invalid("graphs", "%v", err)
	}
	if len(tokens) == 0 {
		return nil, invalid("graphs", "at least one graph is required")
	}
	if len(tokens) > maxGraphs {
		return nil, invalid("graphs", "at most %d graphs", maxGraphs)
	}

	specs := make([]chart.GraphSpec, 0, len(tokens))
	var haveOther, haveTotal bool
	for _, tok := range tokens {
		parts := strings.Split(tok, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, invalid("graphs", "%q is not name:color[:role]", tok)
		}
		spec := chart.GraphSpec{Name: parts[0], Color: strings.ToLower(parts[1])}
		if spec.Name == "" {
			return nil, invalid("graphs", "%q has no name", tok)
		}
		if _, err := render.ParseHex(spec.Color); err != nil {
			return nil, invalid("graphs", "%q: %v", tok, err)
		}
		if len(parts) == 3 {
			switch strings.ToLower(parts[2]) {
			case "other":
				if haveOther {
					return nil, invalid("graphs", "more than one other graph")
				}
				haveOther = true
				spec.Role = chart.RoleOther
			case "total":
				if haveTotal {
					return nil, invalid("graphs", "more than one total graph")
				}
				haveTotal = true
				spec.Role = chart.RoleTotal
			case "", "named":
			default:
				return nil, invalid("graphs", "unknown role %q", parts[2])
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
