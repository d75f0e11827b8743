package topology

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
)

// TileIndex is the unique key of one terrain/imagery tile. It is the key
// of the elevation cache and of the fetch dedup table, so it must stay a
// plain comparable value.
type TileIndex struct {
	X     int
	Y     int
	Zoom  int
	Group Group
}

func (i TileIndex) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", i.Group, i.Zoom, i.X, i.Y)
}

// Returns true if the tile coordinates are inside the valid range for
// their zoom level
func (i TileIndex) Valid() bool {
	n := 1 << uint(i.Zoom)
	return i.Zoom >= 0 && i.X >= 0 && i.X < n && i.Y >= 0 && i.Y < n
}

// Returns the indices of the four children of the tile in deterministic
// order: south-west, south-east, north-west, north-east.
//
// Tile rows grow southwards in every group, so the south children are the
// ones on the y+1 row.
func (i TileIndex) Children() [4]TileIndex {
	x, y, z := i.X*2, i.Y*2, i.Zoom+1
	return [4]TileIndex{
		{X: x, Y: y + 1, Zoom: z, Group: i.Group},     // south-west
		{X: x + 1, Y: y + 1, Zoom: z, Group: i.Group}, // south-east
		{X: x, Y: y, Zoom: z, Group: i.Group},         // north-west
		{X: x + 1, Y: y, Zoom: z, Group: i.Group},     // north-east
	}
}

// Computes the tile containing the given point at the given zoom level,
// dispatching on the latitude band of the point. The returned tile extent
// always contains the point (closed-edge containment: points exactly on
// the antimeridian or on a pole clamp into the outermost tile).
func (t *Topology) LonLatToTileXY(p geometry.GeoPoint, zoom int, g Group) TileIndex {
	n := 1 << uint(zoom)

	x := int(math.Floor((p.Lon + 180.0) / 360.0 * float64(n)))

	var y int
	switch g {
	case MainBand:
		latRad := clamp(p.Lat, -MercatorLimitLatitude, MercatorLimitLatitude) * math.Pi / 180.0
		y = int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * float64(n)))
	default:
		ext := t.GroupExtent(g)
		y = int(math.Floor((ext.Ymax - p.Lat) / ext.Height() * float64(n)))
	}

	return TileIndex{
		X:     clampInt(x, 0, n-1),
		Y:     clampInt(y, 0, n-1),
		Zoom:  zoom,
		Group: g,
	}
}

// Computes the geographic extent of a tile, the exact inverse of
// LonLatToTileXY. Adjacent tiles share edges exactly and the union of the
// four children extents equals the parent extent.
func (t *Topology) TileExtent(i TileIndex) *geometry.Extent {
	n := float64(int(1) << uint(i.Zoom))

	minLon := float64(i.X)/n*360.0 - 180.0
	maxLon := float64(i.X+1)/n*360.0 - 180.0

	var minLat, maxLat float64
	switch i.Group {
	case MainBand:
		minLat = math.Atan(math.Sinh(math.Pi*(1-2*float64(i.Y+1)/n))) * 180.0 / math.Pi
		maxLat = math.Atan(math.Sinh(math.Pi*(1-2*float64(i.Y)/n))) * 180.0 / math.Pi
	default:
		ext := t.GroupExtent(i.Group)
		minLat = ext.Ymax - float64(i.Y+1)/n*ext.Height()
		maxLat = ext.Ymax - float64(i.Y)/n*ext.Height()
	}

	return geometry.NewExtent(minLon, minLat, maxLon, maxLat)
}

// Expands a tile URL template replacing the {x}, {y} and {z} placeholders.
// Polar cap groups get a topology specific rewrite appending the group
// name as an extra path segment before the coordinate part.
func BuildTileURL(template string, i TileIndex) string {
	url := template
	if i.Group != MainBand {
		if cut := strings.Index(url, "{"); cut >= 0 {
			url = url[:cut] + i.Group.String() + "/" + url[cut:]
		} else {
			url = strings.TrimSuffix(url, "/") + "/" + i.Group.String()
		}
	}
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(i.X))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(i.Y))
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(i.Zoom))
	return url
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
