package chart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData means there is nothing to draw: the payload was
	// unusable or no graph collected any series.
	ErrNoData = errors.New("no chartable data")

	// ErrMisaligned means two contributing series had different
	// lengths after trimming, so they cannot be summed by index.
	ErrMisaligned = errors.New("series lengths differ")
)

// Aggregate sums raw series into one graph per spec. The last
// point of every raw series is a partial bucket and is dropped
// first. A series whose name matches a named or other spec
// (case-insensitively) is summed into it; anything else falls
// into the other spec, if declared. Every series is also summed
// into the total spec, if declared. Graphs that collected
// nothing are left out; if none remain, ErrNoData is returned.
func Aggregate(series []RawSeries, specs []GraphSpec) ([]Graph, error) {
	byName := make(map[string]int, len(specs))
	other, total := -1, -1
	for i, spec := range specs {
		switch spec.Role {
		case RoleTotal:
			if total < 0 {
				total = i
			}
			continue
		case RoleOther:
			if other < 0 {
				other = i
			}
		}
		key := strings.ToLower(spec.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = i
		}
	}

	sums := make([][]float64, len(specs))
	length := -1
	for _, s := range series {
		points := trimPartial(s.Data)
		if len(points) == 0 {
			continue
		}

		targets := make([]int, 0, 2)
		if i, ok := byName[strings.ToLower(s.Name)]; ok {
			targets = append(targets, i)
		} else if other >= 0 {
			targets = append(targets, other)
		}
		if total >= 0 {
			targets = append(targets, total)
		}
		if len(targets) == 0 {
			continue
		}

		if length < 0 {
			length = len(points)
		} else if len(points) != length {
			return nil, fmt.Errorf(
				"%w: %q has %d points, want %d",
				ErrMisaligned, s.Name, len(points), length,
			)
		}

		for _, t := range targets {
			if sums[t] == nil {
				sums[t] = make([]float64, length)
			}
			for i, p := range points {
				sums[t][i] += p.Count
			}
		}
	}

	var graphs []Graph
	for i, spec := range specs {
		if len(sums[i]) == 0 {
			continue
		}
		graphs = append(graphs, Graph{
			Name:  spec.Name,
			Color: spec.Color,
			Data:  sums[i],
		})
	}
	if len(graphs) == 0 {
		return nil, ErrNoData
	}
	return graphs, nil
}

// trimPartial drops the trailing, still-filling bucket.
func trimPartial(points []RawPoint) []RawPoint {
	if len(points) == 0 {
		return points
	}
	return points[:len(points)-1]
}
