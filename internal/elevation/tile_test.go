package elevation

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/internal/topology"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func testIndex() topology.TileIndex {
	return topology.TileIndex{X: 8510, Y: 5466, Zoom: 14, Group: topology.MainBand}
}

func testExtent() *geometry.Extent {
	return geometry.NewExtent(7.0, 50.0, 8.0, 51.0)
}

func flatGrid(height float64) []float64 {
	heights := make([]float64, GridSize*GridSize)
	for i := range heights {
		heights[i] = height
	}
	return heights
}

func TestDecodeJSONObjectPayload(t *testing.T) {
	payload, err := json.Marshal(map[string][]float64{"heights": flatGrid(120.5)})
	require.NoError(t, err)

	tile, err := DecodeElevationTile(testIndex(), testExtent(), fetch.ResponseTypeJSON, payload)
	require.NoError(t, err)
	require.False(t, tile.NoData)
	require.Len(t, tile.Heights, GridSize*GridSize)
	require.Equal(t, 120.5, tile.Heights[0])
}

func TestDecodeJSONBareArrayPayload(t *testing.T) {
	payload, err := json.Marshal(flatGrid(-3.25))
	require.NoError(t, err)

	tile, err := DecodeElevationTile(testIndex(), testExtent(), fetch.ResponseTypeJSON, payload)
	require.NoError(t, err)
	require.Equal(t, -3.25, tile.Heights[GridSize*GridSize-1])
}

func TestDecodeArrayBufferPayload(t *testing.T) {
	data := make([]byte, GridSize*GridSize*4)
	for i := 0; i < GridSize*GridSize; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(i)))
	}

	tile, err := DecodeElevationTile(testIndex(), testExtent(), fetch.ResponseTypeArrayBuffer, data)
	require.NoError(t, err)
	require.Equal(t, 0.0, tile.Heights[0])
	require.Equal(t, 33.0, tile.Heights[GridSize+1])
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	index := testIndex()
	ext := testExtent()

	_, err := DecodeElevationTile(index, ext, fetch.ResponseTypeJSON, []byte("not json"))
	require.Error(t, err)

	short, err2 := json.Marshal(map[string][]float64{"heights": {1, 2, 3}})
	require.NoError(t, err2)
	_, err = DecodeElevationTile(index, ext, fetch.ResponseTypeJSON, short)
	require.Error(t, err)

	_, err = DecodeElevationTile(index, ext, fetch.ResponseTypeArrayBuffer, make([]byte, 16))
	require.Error(t, err)

	_, err = DecodeElevationTile(index, ext, fetch.ResponseType("blob"), make([]byte, GridSize*GridSize*4))
	require.Error(t, err)
}

func TestHeightAtFlatTile(t *testing.T) {
	tile := &ElevationTile{
		Index:   testIndex(),
		Extent:  testExtent(),
		Heights: flatGrid(88.0),
	}

	for _, p := range []geometry.GeoPoint{
		{Lon: 7.0, Lat: 50.0},
		{Lon: 8.0, Lat: 51.0},
		{Lon: 7.5, Lat: 50.5},
		{Lon: 7.123, Lat: 50.987},
	} {
		h, err := tile.HeightAt(p)
		require.NoError(t, err)
		require.InDelta(t, 88.0, h, 1e-9)
	}
}

func TestHeightAtInterpolatesWithinCell(t *testing.T) {
	heights := flatGrid(0)
	// raise the northwest corner sample only
	heights[0] = 100

	tile := &ElevationTile{
		Index:   testIndex(),
		Extent:  testExtent(),
		Heights: heights,
	}

	nw, err := tile.HeightAt(geometry.GeoPoint{Lon: 7.0, Lat: 51.0})
	require.NoError(t, err)
	require.InDelta(t, 100.0, nw, 1e-9)

	// a point away from the raised corner reads zero
	far, err := tile.HeightAt(geometry.GeoPoint{Lon: 7.9, Lat: 50.1})
	require.NoError(t, err)
	require.InDelta(t, 0.0, far, 1e-9)
}

func TestHeightAtOutsideExtent(t *testing.T) {
	tile := &ElevationTile{
		Index:   testIndex(),
		Extent:  testExtent(),
		Heights: flatGrid(5),
	}

	_, err := tile.HeightAt(geometry.GeoPoint{Lon: 12.0, Lat: 50.5})
	require.ErrorIs(t, err, topology.ErrNotInTriangle)
}

func TestHeightAtNoDataTile(t *testing.T) {
	tile := NewNoDataTile(testIndex(), testExtent())
	require.True(t, tile.NoData)
	require.Nil(t, tile.Heights)

	_, err := tile.HeightAt(geometry.GeoPoint{Lon: 7.5, Lat: 50.5})
	require.Error(t, err)
}
