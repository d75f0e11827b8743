package elevation

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/segmentio/encoding/json"
)

// Number of height samples per tile edge. Every elevation tile is a
// GridSize x GridSize row major grid, northernmost row first.
const GridSize = 32

// ElevationTile is one decoded height grid. Immutable once cached: it is
// never patched in place, only replaced wholesale under its tile index.
// The NoData form caches a permanently failing tile so it is not fetched
// again; its Heights slice is nil.
type ElevationTile struct {
	Index   topology.TileIndex
	Extent  *geometry.Extent
	Heights []float64
	NoData  bool
}

// Builds the sentinel tile recording that no elevation data exists for
// the given index
func NewNoDataTile(index topology.TileIndex, extent *geometry.Extent) *ElevationTile {
	return &ElevationTile{
		Index:  index,
		Extent: extent,
		NoData: true,
	}
}

// Interpolates the ground height at the given point from the two grid
// cell triangles containing it, see topology.BarycentricHeight. Returns
// topology.ErrNotInTriangle when the point does not fall into the tile
// extent, which callers treat as a recoverable data integrity condition.
func (t *ElevationTile) HeightAt(p geometry.GeoPoint) (float64, error) {
	if t.NoData {
		return 0, fmt.Errorf("tile %s holds no elevation data", t.Index)
	}

	cells := float64(GridSize - 1)
	fx := (p.Lon - t.Extent.Xmin) / t.Extent.Width() * cells
	fy := (t.Extent.Ymax - p.Lat) / t.Extent.Height() * cells

	ci := clampCell(int(math.Floor(fx)))
	cj := clampCell(int(math.Floor(fy)))

	v0 := t.samplePosition(ci, cj)
	v1 := t.samplePosition(ci+1, cj)
	v2 := t.samplePosition(ci, cj+1)
	v3 := t.samplePosition(ci+1, cj+1)

	heights := [4]float64{
		t.sample(ci, cj),
		t.sample(ci+1, cj),
		t.sample(ci, cj+1),
		t.sample(ci+1, cj+1),
	}

	return topology.BarycentricHeight(p, v0, v1, v2, v3, heights)
}

func (t *ElevationTile) sample(x, y int) float64 {
	return t.Heights[y*GridSize+x]
}

func (t *ElevationTile) samplePosition(x, y int) geometry.GeoPoint {
	cells := float64(GridSize - 1)
	return geometry.GeoPoint{
		Lon: t.Extent.Xmin + float64(x)/cells*t.Extent.Width(),
		Lat: t.Extent.Ymax - float64(y)/cells*t.Extent.Height(),
	}
}

func clampCell(v int) int {
	if v < 0 {
		return 0
	}
	if v > GridSize-2 {
		return GridSize - 2
	}
	return v
}

// Payload shape of JSON elevation tiles
type jsonTilePayload struct {
	Heights []float64 `json:"heights"`
}

// Decodes a fetched payload into an elevation tile. JSON payloads carry a
// {"heights": [...]} object or a bare array; arraybuffer payloads are a
// packed little endian float32 grid.
func DecodeElevationTile(index topology.TileIndex, extent *geometry.Extent, responseType fetch.ResponseType, data []byte) (*ElevationTile, error) {
	var heights []float64

	switch responseType {
	case fetch.ResponseTypeJSON:
		var payload jsonTilePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			if err2 := json.Unmarshal(data, &heights); err2 != nil {
				return nil, fmt.Errorf("tile %s: decode json payload: %w", index, err)
			}
		} else {
			heights = payload.Heights
		}

	case fetch.ResponseTypeArrayBuffer:
		if len(data) != GridSize*GridSize*4 {
			return nil, fmt.Errorf("tile %s: payload is %d bytes, want %d", index, len(data), GridSize*GridSize*4)
		}
		heights = make([]float64, GridSize*GridSize)
		for i := range heights {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			heights[i] = float64(math.Float32frombits(bits))
		}

	default:
		return nil, fmt.Errorf("tile %s: unsupported response type %q", index, responseType)
	}

	if len(heights) != GridSize*GridSize {
		return nil, fmt.Errorf("tile %s: grid holds %d samples, want %d", index, len(heights), GridSize*GridSize)
	}

	return &ElevationTile{
		Index:   index,
		Extent:  extent,
		Heights: heights,
	}, nil
}
