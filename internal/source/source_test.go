package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cluster "github.com/huangxianhong/supercluster"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestFromDB(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows([]string{"id", "longitude", "latitude"}).
			AddRow(3, 2.35, 48.85).
			AddRow(7, -0.12, 51.5)
		mock.ExpectQuery("SELECT id, longitude, latitude FROM points").WillReturnRows(rows)

		points, err := FromDB(context.Background(), db, "")
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, cluster.GeoCoordinates{Lon: -0.12, Lat: 51.5}, points[1].GetCoordinates())
		assert.Equal(t, uint64(3), points[0].(cluster.GeoJSONPoint).ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFromDBCustomQuery(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows([]string{"id", "lng", "lat"})
		mock.ExpectQuery("SELECT seq, lng, lat FROM reports").WillReturnRows(rows)

		points, err := FromDB(context.Background(), db, "SELECT seq, lng, lat FROM reports")
		require.NoError(t, err)
		assert.Empty(t, points)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFromDBErrors(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))
		_, err := FromDB(context.Background(), db, "")
		assert.ErrorContains(t, err, "connection refused")
	})

	it(func() {
		rows := sqlmock.NewRows([]string{"id", "longitude", "latitude"}).
			AddRow(1, "east", 10)
		mock.ExpectQuery("SELECT").WillReturnRows(rows)
		_, err := FromDB(context.Background(), db, "")
		assert.ErrorContains(t, err, "scan point")
	})
}

func TestFromGeoJSON(t *testing.T) {
	points, err := FromGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Lisbon"},"geometry":{"type":"Point","coordinates":[-9.14,38.72]}}
	]}`))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Lisbon", points[0].(cluster.GeoJSONPoint).Properties["name"])

	_, err = FromGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}
	]}`))
	assert.True(t, errors.Is(err, cluster.ErrInvalidInput))

	_, err = FromGeoJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestFromGeoJSONFile(t *testing.T) {
	points, err := FromGeoJSONFile("../../testdata/places.json")
	require.NoError(t, err)
	assert.NotEmpty(t, points)

	path := filepath.Join(t.TempDir(), "points.json")
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewPointFeature([]float64{1, 2}))
	raw, err := fc.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	points, err = FromGeoJSONFile(path)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	_, err = FromGeoJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
