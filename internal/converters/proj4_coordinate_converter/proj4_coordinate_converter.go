package proj4_coordinate_converter

import (
	"fmt"
	"math"

	"github.com/ecopia-map/globe_terrain/internal/converters"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	proj "github.com/xeonx/proj4"
)

const toRadians = math.Pi / 180
const toDeg = 180 / math.Pi

// Proj4 definitions for the reference systems the streamer needs. Segment
// extents live in web mercator (3857), geographic input is WGS84 (4326).
var epsgDatabase = map[int]string{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	3395: "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
}

type proj4CoordinateConverter struct {
	projections map[int]*proj.Proj
}

// Builds a CoordinateConverter backed by the proj.4 library. Projections
// are initialized lazily on first use and cached until Cleanup.
func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projections: make(map[int]*proj.Proj),
	}
}

// Converts the given coordinate from the source srid to the target srid
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	src, err := cc.initProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.initProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	return executeConversion(&coord, src, dst)
}

// Converts a 2D extent from the source srid to the target srid converting
// its two corners
func (cc *proj4CoordinateConverter) ConvertExtentSrid(sourceSrid int, targetSrid int, extent *geometry.Extent) (*geometry.Extent, error) {
	min, err := cc.ConvertCoordinateSrid(sourceSrid, targetSrid, geometry.Coordinate{X: extent.Xmin, Y: extent.Ymin})
	if err != nil {
		return nil, err
	}
	max, err := cc.ConvertCoordinateSrid(sourceSrid, targetSrid, geometry.Coordinate{X: extent.Xmax, Y: extent.Ymax})
	if err != nil {
		return nil, err
	}
	return geometry.NewExtent(min.X, min.Y, max.X, max.Y), nil
}

// Releases all initialized projections
func (cc *proj4CoordinateConverter) Cleanup() {
	for _, p := range cc.projections {
		p.Close()
	}
	cc.projections = make(map[int]*proj.Proj)
}

func (cc *proj4CoordinateConverter) initProjection(srid int) (*proj.Proj, error) {
	if p, ok := cc.projections[srid]; ok {
		return p, nil
	}

	definition, ok := epsgDatabase[srid]
	if !ok {
		return nil, fmt.Errorf("epsg code %d not found in the local database", srid)
	}

	p, err := proj.InitPlus(definition)
	if err != nil {
		return nil, fmt.Errorf("unable to init projection for epsg code %d: %w", srid, err)
	}

	cc.projections[srid] = p
	return p, nil
}

func executeConversion(coord *geometry.Coordinate, sourceProj *proj.Proj, destinationProj *proj.Proj) (geometry.Coordinate, error) {
	x, y := getCoordinateArraysForConversion(coord, sourceProj)
	z := []float64{coord.Z}

	if err := proj.TransformRaw(sourceProj, destinationProj, x, y, z); err != nil {
		return *coord, err
	}

	return geometry.Coordinate{
		X: getCoordinateFromProjectedArray(x, destinationProj),
		Y: getCoordinateFromProjectedArray(y, destinationProj),
		Z: z[0],
	}, nil
}

// proj.4 wants latlong coordinates in radians
func getCoordinateArraysForConversion(coord *geometry.Coordinate, p *proj.Proj) ([]float64, []float64) {
	if p.IsLatLong() {
		return []float64{coord.X * toRadians}, []float64{coord.Y * toRadians}
	}
	return []float64{coord.X}, []float64{coord.Y}
}

func getCoordinateFromProjectedArray(v []float64, p *proj.Proj) float64 {
	if p.IsLatLong() {
		return v[0] * toDeg
	}
	return v[0]
}
