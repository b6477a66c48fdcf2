package data

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lec-simulator/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeriesAndAssemble(t *testing.T) {
	loadCSV := `id,timestamp,load
h1,2021-06-01 00:00:00,0.5
h1,2021-06-01 01:00:00,0.7
h2,2021-06-01T00:00:00Z,NaN
`
	pvCSV := `id,timestamp,gen
h1,2021-06-01 00:00:00,0
h1,2021-06-01 01:00:00,-3
`
	ctx := context.Background()
	load, err := readSeries(ctx, strings.NewReader(loadCSV), "load.csv", nil)
	require.NoError(t, err)
	pv, err := readSeries(ctx, strings.NewReader(pvCSV), "pv.csv", nil)
	require.NoError(t, err)

	ds := assemble(load, pv)
	require.NoError(t, ds.Validate())

	require.Len(t, ds.Timestamps, 2)
	require.Len(t, ds.Households, 2)
	assert.Equal(t, "h1", ds.Households[0].ID)
	assert.Equal(t, []float64{0.5, 0.7}, ds.Households[0].Load)
	assert.Equal(t, []float64{0, 0}, ds.Households[0].PV)
	assert.Equal(t, []float64{0, 0}, ds.Households[1].Load)

	joined := strings.Join(ds.Warnings, "\n")
	assert.Contains(t, joined, "1 invalid load values")
	assert.Contains(t, joined, "1 invalid generation values")
	assert.Contains(t, joined, "1 missing load hours")
	assert.Contains(t, joined, "1 households have no generation series")
}

func TestReadSeriesKeepsLocalWallClock(t *testing.T) {
	loadCSV := `id,timestamp,load
h1,2021-06-01T11:00:00+02:00,0.5
h1,2021-06-01T12:00:00+02:00,0.5
h1,2021-06-01T13:00:00+02:00,0.5
`
	pvCSV := `id,timestamp,gen
h1,2021-06-01T10:00:00Z,1
`
	ctx := context.Background()
	load, err := readSeries(ctx, strings.NewReader(loadCSV), "load.csv", nil)
	require.NoError(t, err)
	pv, err := readSeries(ctx, strings.NewReader(pvCSV), "pv.csv", load.loc)
	require.NoError(t, err)

	ds := assemble(load, pv)
	require.Len(t, ds.Timestamps, 3)
	assert.Equal(t, []int{11, 12, 13}, []int{ds.Timestamps[0].Hour(), ds.Timestamps[1].Hour(), ds.Timestamps[2].Hour()})
	assert.Equal(t, []float64{0, 1, 0}, ds.Households[0].PV, "10:00Z is local noon")
	assert.Contains(t, ds.Warnings, "2 missing generation hours filled with 0")
}

func TestReadSeriesUsesConfiguredLocation(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	load, err := readSeries(context.Background(), strings.NewReader("id,timestamp,load\nh1,2021-01-01 08:00:00,1\nh1,2021-01-01T08:00:00Z,2\n"), "load.csv", cet)
	require.NoError(t, err)

	byTS := load.values["h1"]
	require.Len(t, byTS, 2)
	assert.Equal(t, 1.0, byTS[time.Date(2021, 1, 1, 8, 0, 0, 0, cet)])
	assert.Equal(t, 2.0, byTS[time.Date(2021, 1, 1, 9, 0, 0, 0, cet)])
}

func TestReadSeriesRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, err := readSeries(ctx, strings.NewReader("foo,bar\n1,2\n"), "x", nil)
	assert.Error(t, err)

	_, err = readSeries(ctx, strings.NewReader("id,timestamp,load\nh1,yesterday,1\n"), "x", nil)
	assert.Error(t, err)

	_, err = readSeries(ctx, strings.NewReader("id,timestamp,load\n"), "x", nil)
	assert.Error(t, err)
}

func TestCSVRoundTripThroughProvider(t *testing.T) {
	ctx := context.Background()
	ds, err := GenerateSynthetic(ctx, SyntheticOptions{Households: 3, Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Days: 1, Seed: 1})
	require.NoError(t, err)

	dir := t.TempDir()
	loadPath, pvPath := filepath.Join(dir, "load.csv"), filepath.Join(dir, "pv.csv")
	require.NoError(t, WriteCSV(ds, loadPath, pvPath))

	got, err := CSVProvider{LoadPath: loadPath, PVPath: pvPath}.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Households, 3)
	assert.Empty(t, got.Warnings)
	for k := range ds.Households {
		for i := range ds.Timestamps {
			assert.InDelta(t, ds.Households[k].Load[i], got.Households[k].Load[i], 1e-4)
			assert.InDelta(t, ds.Households[k].PV[i], got.Households[k].PV[i], 1e-4)
		}
	}
}

func TestGenerateSyntheticIsDeterministic(t *testing.T) {
	opts := SyntheticOptions{Households: 12, Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Days: 2, Seed: 42}
	a, err := GenerateSynthetic(context.Background(), opts)
	require.NoError(t, err)
	b, err := GenerateSynthetic(context.Background(), opts)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("synthetic dataset differs between runs (-a +b):\n%s", diff)
	}

	require.NoError(t, a.Validate())
	for _, h := range a.Households {
		assert.Zero(t, h.PV[0], "no generation at midnight")
		assert.Greater(t, h.PV[12], 0.0, "generation at noon")
	}

	_, err = GenerateSynthetic(context.Background(), SyntheticOptions{})
	assert.Error(t, err)
}

func TestFilterSeasonPutsDecemberFirst(t *testing.T) {
	ctx := context.Background()
	ds, err := GenerateSynthetic(ctx, SyntheticOptions{Households: 1, Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Days: 365, Seed: 3})
	require.NoError(t, err)

	win := ds.FilterSeason(model.SeasonWinter)

	assert.Equal(t, (31+28+31)*24, win.Len())
	assert.Equal(t, time.December, win.Timestamps[0].Month())
	assert.Equal(t, time.February, win.Timestamps[win.Len()-1].Month())
	require.NoError(t, win.Validate())
	assert.Equal(t, 365*24, ds.Len(), "source dataset is untouched")
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[int](time.Minute)
	defer c.Close()
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.evictExpired()
	assert.Zero(t, c.Len())

	c.Set("b", 2)
	c.Clear()
	assert.Zero(t, c.Len())

	var nilCache *TTLCache[int]
	_, ok = nilCache.Get("x")
	assert.False(t, ok)
}

func TestCacheKeyIsStable(t *testing.T) {
	assert.Equal(t, CacheKey("a", 1, true), CacheKey("a", 1, true))
	assert.NotEqual(t, CacheKey("a", 1), CacheKey("a", 2))
	assert.Len(t, CacheKey("x"), 64)
}

func TestCachedProviderLoadsOnce(t *testing.T) {
	calls := 0
	src := ProviderFunc(func(ctx context.Context) (*Dataset, error) {
		calls++
		return GenerateSynthetic(ctx, SyntheticOptions{Households: 2, Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Days: 1, Seed: 1})
	})
	p := NewCachedProvider(src)

	a, err := p.Load(context.Background())
	require.NoError(t, err)
	b, err := p.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	calls := 0
	p := NewCachedProvider(ProviderFunc(func(ctx context.Context) (*Dataset, error) {
		calls++
		return nil, errors.New("boom")
	}))
	_, err := p.Load(context.Background())
	assert.Error(t, err)
	_, err = p.Load(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestInspectAndSanitize(t *testing.T) {
	assert.Len(t, Inspect(Household{ID: "z", Load: []float64{0, 0, 0}}), 1)
	assert.Len(t, Inspect(Household{ID: "c", Load: []float64{0.3, 0.3, 0.3}}), 1)
	assert.Empty(t, Inspect(Household{ID: "ok", Load: []float64{0.1, 0.4}}))

	s := []float64{1, -1, 2}
	assert.Equal(t, 1, Sanitize(s))
	assert.Equal(t, []float64{1, 0, 2}, s)

	clean := Household{ID: "ok", Load: []float64{0.1}, PV: []float64{0.2}}
	got, n := SanitizeHousehold(clean)
	assert.Zero(t, n)
	assert.Same(t, &clean.Load[0], &got.Load[0])

	dirty := Household{ID: "d", Load: []float64{-0.4, 0.5}, PV: []float64{math.NaN(), 1}}
	got, n = SanitizeHousehold(dirty)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{0, 0.5}, got.Load)
	assert.Equal(t, []float64{0, 1}, got.PV)
	assert.Equal(t, -0.4, dirty.Load[0])
}

func TestJSONRoundTrip(t *testing.T) {
	ds, err := GenerateSynthetic(context.Background(), SyntheticOptions{Households: 2, Start: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Days: 1, Seed: 9})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, WriteJSON(ds, path))

	got, err := JSONProvider{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ds.Households, got.Households)
	require.Len(t, got.Timestamps, len(ds.Timestamps))
	assert.True(t, got.Timestamps[5].Equal(ds.Timestamps[5]))
}
