package gribgo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gribgo/blobstore"
	"github.com/hupe1980/gribgo/index"
	"github.com/hupe1980/gribgo/testutil"
)

func writeLocal(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func writeGzip(dir, name string, data []byte) error {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return writeLocal(dir, name, buf.Bytes())
}

const eraPoints = 7320

// eraHeader builds the header of one synthetic ERA5-style temperature record.
func eraHeader(number, date, tm, level int64) map[string]any {
	return map[string]any{
		"edition":           int64(1),
		"centre":            "ecmf",
		"centreDescription": "European Centre for Medium-Range Weather Forecasts",
		"paramId":           int64(130),
		"shortName":         "t",
		"units":             "K",
		"name":              "Temperature",
		"missingValue":      int64(9999),
		"gridType":          "regular_ll",
		"numberOfPoints":    int64(eraPoints),
		"number":            number,
		"totalNumber":       int64(10),
		"dataDate":          date,
		"dataTime":          tm,
		"endStep":           int64(0),
		"stepUnits":         int64(1),
		"stepType":          "instant",
		"topLevel":          level,
		"typeOfLevel":       "isobaricInhPa",
	}
}

func flatValues(n int, fill float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = fill
	}
	return values
}

// geoGrid returns synthetic latitude/longitude arrays of length n.
func geoGrid(n int) ([]float64, []float64) {
	lat := make([]float64, n)
	lon := make([]float64, n)
	for i := range lat {
		lat[i] = 90 - float64(i/120)
		lon[i] = 3 * float64(i%120)
	}
	return lat, lon
}

func eraFields() []testutil.Field {
	rng := testutil.NewRNG(42)

	var fields []testutil.Field
	for number := int64(0); number < 10; number++ {
		for _, date := range []int64{20170101, 20170102} {
			for _, tm := range []int64{0, 1200} {
				for _, level := range []int64{850, 500} {
					values := make([]float64, eraPoints)
					rng.FillUniform(values, 220, 310)
					f := testutil.Field{
						Header: eraHeader(number, date, tm, level),
						Values: values,
					}
					if len(fields) == 0 {
						lat, lon := geoGrid(eraPoints)
						f.Header["latitudes"] = lat
						f.Header["longitudes"] = lon
					}
					fields = append(fields, f)
				}
			}
		}
	}
	return fields
}

func openData(t *testing.T, data []byte, opts ...Option) (*Dataset, error) {
	t.Helper()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "test.grib", data))

	return Open(ctx, "test.grib", testutil.NewDecoder(), append([]Option{WithStore(store)}, opts...)...)
}

func openFields(t *testing.T, fields []testutil.Field, opts ...Option) (*Dataset, error) {
	t.Helper()
	return openData(t, testutil.MustEncodeStream(fields...), opts...)
}

func TestOpenDataset(t *testing.T) {
	ds, err := openFields(t, eraFields())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"number":   10,
		"dataDate": 2,
		"dataTime": 2,
		"topLevel": 2,
		"i":        eraPoints,
	}, ds.Dimensions)

	temp := ds.Variables["t"]
	require.NotNil(t, temp)
	assert.False(t, temp.IsCoordinate())
	assert.Equal(t, []string{"number", "dataDate", "dataTime", "topLevel", "i"}, temp.Dimensions)
	assert.Equal(t, []int{10, 2, 2, 2, eraPoints}, temp.Shape)

	assert.Equal(t, index.Long(130), temp.Attributes["paramId"])
	assert.Equal(t, index.String("K"), temp.Attributes["units"])
	assert.Equal(t, index.String("regular_ll"), temp.Attributes["gridType"])
	assert.Equal(t, index.Long(eraPoints), temp.Attributes["numberOfPoints"])
	assert.Equal(t,
		index.String("number dataDate dataTime endStep topLevel lat lon"),
		temp.Attributes["coordinates"])

	t.Run("Coordinates", func(t *testing.T) {
		number := ds.Variables["number"]
		require.NotNil(t, number)
		assert.True(t, number.IsCoordinate())
		assert.Equal(t, []string{"number"}, number.Dimensions)
		require.Len(t, number.Values(), 10)
		assert.Equal(t, index.Long(0), number.Values()[0])
		assert.Equal(t, index.Long(9), number.Values()[9])
		assert.Equal(t, index.Long(10), number.Attributes["totalNumber"])

		topLevel := ds.Variables["topLevel"]
		require.NotNil(t, topLevel)
		// First-observed order, not sorted.
		assert.Equal(t, []index.Value{index.Long(850), index.Long(500)}, topLevel.Values())
		assert.Equal(t, index.String("isobaricInhPa"), topLevel.Attributes["typeOfLevel"])

		// A single-valued coordinate collapses to a dimensionless scalar.
		endStep := ds.Variables["endStep"]
		require.NotNil(t, endStep)
		assert.Empty(t, endStep.Dimensions)
		assert.Empty(t, endStep.Shape)
		assert.Equal(t, []index.Value{index.Long(0)}, endStep.Values())

		_, err := endStep.Materialize(context.Background())
		assert.ErrorIs(t, err, ErrNoPayload)
	})

	t.Run("Geometry", func(t *testing.T) {
		lat, lon := ds.Variables["lat"], ds.Variables["lon"]
		require.NotNil(t, lat)
		require.NotNil(t, lon)
		assert.Equal(t, []string{"i"}, lat.Dimensions)
		assert.Equal(t, []int{eraPoints}, lat.Shape)
		assert.Equal(t, index.String("degrees_north"), lat.Attributes["units"])
		assert.Equal(t, index.String("degrees_east"), lon.Attributes["units"])
		assert.Equal(t, index.Double(90), lat.Values()[0])
	})

	t.Run("GlobalAttributes", func(t *testing.T) {
		assert.Equal(t, index.Long(1), ds.Attributes["edition"])
		assert.Equal(t, index.String("ecmf"), ds.Attributes["centre"])
		assert.Equal(t, index.String(Version), ds.Attributes["gribgoVersion"])
	})
}

func TestOpenMultipleParameters(t *testing.T) {
	fields := []testutil.Field{
		{Header: eraHeader(0, 20170101, 0, 500), Values: flatValues(eraPoints, 273)},
	}
	z := eraHeader(0, 20170101, 0, 500)
	z["paramId"], z["shortName"], z["units"], z["name"] = int64(129), "z", "m**2 s**-2", "Geopotential"
	fields = append(fields, testutil.Field{Header: z, Values: flatValues(eraPoints, 9000)})

	ds, err := openFields(t, fields)
	require.NoError(t, err)

	require.Contains(t, ds.Variables, "t")
	require.Contains(t, ds.Variables, "z")
	assert.Equal(t, index.Long(129), ds.Variables["z"].Attributes["paramId"])

	// Both parameters share the trailing dimension.
	assert.Equal(t, eraPoints, ds.Dimensions["i"])
	assert.Equal(t, []int{eraPoints}, ds.Variables["t"].Shape)
}

func TestOpenDimensionConflict(t *testing.T) {
	var fields []testutil.Field
	for _, level := range []int64{500, 850} {
		fields = append(fields, testutil.Field{
			Header: eraHeader(0, 20170101, 0, level), Values: flatValues(eraPoints, 273),
		})
	}
	for _, level := range []int64{300, 500, 850} {
		z := eraHeader(0, 20170101, 0, level)
		z["paramId"], z["shortName"] = int64(129), "z"
		fields = append(fields, testutil.Field{Header: z, Values: flatValues(eraPoints, 9000)})
	}

	_, err := openFields(t, fields)
	var conflict *DimensionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "topLevel", conflict.Name)
}

func TestOpenCoordinateValueConflict(t *testing.T) {
	// Same coordinate size, different values: t on {850, 500} and z on
	// {300, 700} must not be silently labeled with the first writer's axis.
	var fields []testutil.Field
	for _, level := range []int64{850, 500} {
		fields = append(fields, testutil.Field{
			Header: eraHeader(0, 20170101, 0, level), Values: flatValues(eraPoints, 273),
		})
	}
	for _, level := range []int64{300, 700} {
		z := eraHeader(0, 20170101, 0, level)
		z["paramId"], z["shortName"] = int64(129), "z"
		fields = append(fields, testutil.Field{Header: z, Values: flatValues(eraPoints, 9000)})
	}

	_, err := openFields(t, fields)
	var conflict *VariableConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "topLevel", conflict.Name)
	assert.Equal(t, "coordinate values", conflict.Reason)
}

func TestOpenAmbiguousAttribute(t *testing.T) {
	a := testutil.Field{Header: eraHeader(0, 20170101, 0, 500), Values: flatValues(eraPoints, 273)}
	b := testutil.Field{Header: eraHeader(1, 20170101, 0, 500), Values: flatValues(eraPoints, 273)}
	b.Header["units"] = "m"

	_, err := openFields(t, []testutil.Field{a, b})
	var ambiguous *AmbiguousAttributeError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "units", ambiguous.Key)
}

func TestOpenLenient(t *testing.T) {
	var fields []testutil.Field
	for number := int64(0); number < 3; number++ {
		fields = append(fields, testutil.Field{
			Header: eraHeader(number, 20170101, 0, 500), Values: flatValues(4, 273),
		})
		fields[number].Header["numberOfPoints"] = int64(4)
	}
	// Destroy the record for member 1.
	data := testutil.Corrupt(testutil.MustEncodeStream(fields...), 1)

	_, err := openData(t, data)
	require.Error(t, err)

	ds, err := openData(t, data, WithLenient(true))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Dimensions["number"])
	assert.Equal(t, []index.Value{index.Long(0), index.Long(2)}, ds.Variables["number"].Values())

	arr, err := ds.Variables["t"].Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, arr.Shape())
}

func TestOpenLocalFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := testutil.MustEncodeStream(
		testutil.Field{Header: eraHeader(0, 20170101, 0, 500), Values: flatValues(eraPoints, 273)},
	)

	require.NoError(t, writeLocal(dir, "era5.grib", data))
	ds, err := Open(ctx, filepath.Join(dir, "era5.grib"), testutil.NewDecoder())
	require.NoError(t, err)
	assert.Contains(t, ds.Variables, "t")

	t.Run("Gzip", func(t *testing.T) {
		require.NoError(t, writeGzip(dir, "era5.grib.gz", data))
		ds, err := Open(ctx, filepath.Join(dir, "era5.grib.gz"), testutil.NewDecoder())
		require.NoError(t, err)
		assert.Equal(t, eraPoints, ds.Dimensions["i"])
	})

	t.Run("Cached", func(t *testing.T) {
		ds, err := Open(ctx, filepath.Join(dir, "era5.grib"), testutil.NewDecoder(), WithCacheSize(1<<20))
		require.NoError(t, err)

		arr, err := ds.Variables["t"].Materialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, float32(273), arr.At(0))
	})
}

func TestBuilder(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "test.grib", testutil.MustEncodeStream(
		testutil.Field{Header: eraHeader(0, 20170101, 0, 500), Values: flatValues(eraPoints, 273)},
	)))

	_, err := File("test.grib").Build(ctx)
	require.Error(t, err)

	ds, err := File("test.grib").
		Decoder(testutil.NewDecoder()).
		Store(store).
		Lenient().
		MissingValue(255).
		VersionTag("test").
		Build(ctx)
	require.NoError(t, err)

	assert.Contains(t, ds.Variables, "t")
	assert.Equal(t, index.String("test"), ds.Attributes["gribgoVersion"])

	// The builder is immutable: deriving one must not mutate its parent.
	base := File("test.grib").Decoder(testutil.NewDecoder()).Store(store)
	derived := base.IndexKeys("paramId")
	assert.Len(t, base.opts, 1)
	assert.Len(t, derived.opts, 2)
}

func TestOpenMetrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}

	ds, err := openFields(t, eraFields()[:4], WithMetrics(metrics))
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.IndexBuildCount.Load())
	assert.Equal(t, int64(4), metrics.IndexedRecords.Load())
	assert.Equal(t, int64(0), metrics.MaterializeCount.Load())

	_, err = ds.Variables["t"].Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.MaterializeCount.Load())
	assert.Equal(t, int64(4), metrics.MaterializedFields.Load())
}
