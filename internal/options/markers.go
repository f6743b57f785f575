package options

import (
	"strconv"
	"strings"

	"github.com/stephanfowler/pageview-sparks/internal/render"
)

const maxMarkers = 50

// ParseMarkers parses comma separated epochSec:hexColor pairs.
// The colour may be omitted.
func ParseMarkers(s string) ([]render.Marker, error) {
	var markers []render.Marker
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		secStr, colorStr, _ := strings.Cut(item, ":")
		sec, err := strconv.ParseInt(secStr, 10, 64)
		if err != nil {
			return nil, invalid("markers", "%q has a bad time", item)
		}
		if colorStr != "" {
			if _, err := render.ParseHex(colorStr); err != nil {
				return nil, invalid("markers", "%q: %v", item, err)
			}
		}
		markers = append(markers, render.Marker{
			Sec:   float64(sec),
			Color: colorStr,
		})
		if len(markers) > maxMarkers {
			return nil, invalid("markers", "at most %d markers", maxMarkers)
		}
	}
	return markers, nil
}
