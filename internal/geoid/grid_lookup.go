package geoid

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
)

// Lookup backed by a regular undulation grid loaded from a text file.
//
// The file starts with a header line "minLon minLat maxLon maxLat step"
// followed by one line per grid row, northernmost row first, each holding
// the undulation samples in meters from west to east. Values are parsed
// through decimal to survive exponents and excess precision emitted by
// geoid extraction tools.
//
// Loading happens lazily on the first query. A missing or malformed file
// logs a warning and the lookup degrades to zero undulation.
type GridLookup struct {
	path string

	once   sync.Once
	loaded bool

	minLon, minLat float64
	maxLon, maxLat float64
	step           float64
	cols, rows     int
	samples        []float64 // row major, northernmost row first
}

func NewGridLookup(path string) *GridLookup {
	return &GridLookup{
		path: path,
	}
}

// Returns the bilinearly interpolated undulation at the given position,
// or zero when the grid is unavailable or does not cover it
func (l *GridLookup) GetHeightAt(p geometry.GeoPoint) float64 {
	l.once.Do(l.load)
	if !l.loaded {
		return 0
	}

	if p.Lon < l.minLon || p.Lon > l.maxLon || p.Lat < l.minLat || p.Lat > l.maxLat {
		return 0
	}

	// fractional grid coordinates, row 0 is the northernmost
	fx := (p.Lon - l.minLon) / l.step
	fy := (l.maxLat - p.Lat) / l.step

	x0 := clampIndex(int(fx), l.cols-1)
	y0 := clampIndex(int(fy), l.rows-1)
	x1 := clampIndex(x0+1, l.cols-1)
	y1 := clampIndex(y0+1, l.rows-1)

	tx := fx - float64(x0)
	ty := fy - float64(y0)

	top := l.sample(x0, y0)*(1-tx) + l.sample(x1, y0)*tx
	bottom := l.sample(x0, y1)*(1-tx) + l.sample(x1, y1)*tx

	return top*(1-ty) + bottom*ty
}

func (l *GridLookup) sample(x, y int) float64 {
	return l.samples[y*l.cols+x]
}

func (l *GridLookup) load() {
	if err := l.loadFromFile(); err != nil {
		glog.Warningf("geoid grid unavailable, undulation defaults to zero: %v", err)
		return
	}
	l.loaded = true
}

func (l *GridLookup) loadFromFile() error {
	file, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("geoid grid %s: empty file", l.path)
	}

	header := strings.Fields(scanner.Text())
	if len(header) != 5 {
		return fmt.Errorf("geoid grid %s: malformed header", l.path)
	}

	bounds := make([]float64, 5)
	for i, field := range header {
		d, err := decimal.NewFromString(field)
		if err != nil {
			return fmt.Errorf("geoid grid %s: header field %q: %w", l.path, field, err)
		}
		bounds[i], _ = d.Float64()
	}

	l.minLon, l.minLat, l.maxLon, l.maxLat, l.step = bounds[0], bounds[1], bounds[2], bounds[3], bounds[4]
	if l.step <= 0 || l.maxLon <= l.minLon || l.maxLat <= l.minLat {
		return fmt.Errorf("geoid grid %s: inconsistent header bounds", l.path)
	}

	l.cols = int((l.maxLon-l.minLon)/l.step) + 1
	l.rows = int((l.maxLat-l.minLat)/l.step) + 1

	l.samples = make([]float64, 0, l.cols*l.rows)
	for scanner.Scan() {
		for _, field := range strings.Fields(scanner.Text()) {
			d, err := decimal.NewFromString(field)
			if err != nil {
				return fmt.Errorf("geoid grid %s: sample %q: %w", l.path, field, err)
			}
			v, _ := d.Float64()
			l.samples = append(l.samples, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(l.samples) != l.cols*l.rows {
		return fmt.Errorf("geoid grid %s: expected %d samples, found %d", l.path, l.cols*l.rows, len(l.samples))
	}

	return nil
}

func clampIndex(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
