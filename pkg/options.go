package pkg

import (
	"strings"
	"time"

	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/fetch"
)

// Contains the options needed by the terrain streamer
type StreamerOptions struct {
	URLTemplate          string             // Tile URL template with {x} {y} {z} placeholders
	ResponseType         fetch.ResponseType // Tile payload encoding
	MaxZoom              int                // Max zoom of the main band pyramid, also the zoom point queries sample at
	CapMaxZoom           int                // Max zoom of the polar cap pyramids
	PolarCaps            bool               // Partition into mercator band plus two polar caps
	SubdivisionThreshold float64            // Screen space error in pixels above which a tile subdivides
	MaxConcurrentFetches int                // Upper bound on concurrent in-flight fetches
	FetchTimeout         time.Duration      // Per fetch timeout
	GeoidGridPath        string             // Path of a geoid undulation grid file, empty for a constant undulation. Relative paths resolve against tools.GetRootFolder
	GeoidOffset          float64            // Constant undulation in meters, used when no grid is given
}

func (opt *StreamerOptions) Copy() *StreamerOptions {
	newOpt := *opt
	return &newOpt
}

func DefaultStreamerOptions() *StreamerOptions {
	return &StreamerOptions{
		ResponseType:         fetch.ResponseTypeJSON,
		MaxZoom:              14,
		CapMaxZoom:           10,
		SubdivisionThreshold: 64,
		MaxConcurrentFetches: 4,
		FetchTimeout:         30 * time.Second,
	}
}

// Parses a vertical datum name. The second return is false for an
// unrecognized name.
func ParseDatumMode(value string) (elevation.DatumMode, bool) {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	switch normalizedValue {
	case "ELLIPSOID":
		return elevation.DatumEllipsoid, true
	case "MSL":
		return elevation.DatumMSL, true
	case "GROUND":
		return elevation.DatumGround, true
	}
	return elevation.DatumEllipsoid, false
}
