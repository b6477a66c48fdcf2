package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// CSVProvider reads two long-format files keyed by household id and hourly timestamp:
// load (id,timestamp,load) and PV generation (id,timestamp,gen).
//
// Hour-of-day logic runs on the dataset's wall clock. With Location set, timestamps
// without an offset are read in it and all timestamps are converted to it. Otherwise
// naive timestamps are UTC and every row takes the zone of the load file's first row.
type CSVProvider struct {
	LoadPath string
	PVPath   string
	Location *time.Location
}

func (p CSVProvider) Load(ctx context.Context) (*Dataset, error) {
	load, err := readSeriesFile(ctx, p.LoadPath, p.Location)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	loc := p.Location
	if loc == nil {
		loc = load.loc
	}
	pv, err := readSeriesFile(ctx, p.PVPath, loc)
	if err != nil {
		return nil, fmt.Errorf("pv file: %w", err)
	}
	return assemble(load, pv), nil
}

// seriesTable is id -> timestamp -> value, plus data-quality counters. Every key is in
// loc so equal instants compare equal as map keys.
type seriesTable struct {
	name    string
	loc     *time.Location
	values  map[string]map[time.Time]float64
	invalid int
}

func readSeriesFile(ctx context.Context, path string, loc *time.Location) (*seriesTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSeries(ctx, f, path, loc)
}

// readSeries parses one long-format file. A nil loc adopts the zone of the first row.
func readSeries(ctx context.Context, r io.Reader, name string, loc *time.Location) (*seriesTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idCol, tsCol, valCol, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	t := &seriesTable{name: name, loc: loc, values: map[string]map[time.Time]float64{}}
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty household id", line)
		}
		ts, err := parseTimestamp(rec[tsCol], t.loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if t.loc == nil {
			t.loc = ts.Location()
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valCol]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.invalid++
			v = 0
		}
		byTS, ok := t.values[id]
		if !ok {
			byTS = map[time.Time]float64{}
			t.values[id] = byTS
		}
		byTS[ts.In(t.loc)] = v
	}
	if len(t.values) == 0 {
		return nil, errors.New("no rows")
	}
	return t, nil
}

// resolveColumns finds id and timestamp by name; the remaining column holds the values.
func resolveColumns(header []string) (idCol, tsCol, valCol int, err error) {
	idCol, tsCol, valCol = -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id", "household", "household_id":
			idCol = i
		case "timestamp", "time", "datetime":
			tsCol = i
		default:
			if valCol == -1 {
				valCol = i
			}
		}
	}
	if idCol < 0 || tsCol < 0 || valCol < 0 {
		return 0, 0, 0, fmt.Errorf("header %v: want id, timestamp and a value column", header)
	}
	return idCol, tsCol, valCol, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// assemble aligns both tables on the union of load timestamps. Gaps are filled with 0
// and reported once per kind as warnings.
func assemble(load, pv *seriesTable) *Dataset {
	tsSet := map[time.Time]struct{}{}
	for _, byTS := range load.values {
		for ts := range byTS {
			tsSet[ts] = struct{}{}
		}
	}
	timestamps := make([]time.Time, 0, len(tsSet))
	for ts := range tsSet {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	ids := make([]string, 0, len(load.values))
	for id := range load.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ds := &Dataset{Timestamps: timestamps, Households: make([]Household, 0, len(ids))}
	missingLoad, missingPV, noPV := 0, 0, 0
	for _, id := range ids {
		h := Household{ID: id, Load: make([]float64, len(timestamps)), PV: make([]float64, len(timestamps))}
		pvByTS, hasPV := pv.values[id]
		if !hasPV {
			noPV++
		}
		for i, ts := range timestamps {
			v, ok := load.values[id][ts]
			if !ok {
				missingLoad++
			}
			h.Load[i] = v
			if hasPV {
				g, ok := pvByTS[ts]
				if !ok {
					missingPV++
				}
				h.PV[i] = g
			}
		}
		ds.Households = append(ds.Households, h)
	}

	if load.invalid > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%s: %d invalid load values replaced with 0", load.name, load.invalid))
	}
	if pv.invalid > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%s: %d invalid generation values replaced with 0", pv.name, pv.invalid))
	}
	if missingLoad > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d missing load hours filled with 0", missingLoad))
	}
	if missingPV > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d missing generation hours filled with 0", missingPV))
	}
	if noPV > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d households have no generation series and are treated as zero generation", noPV))
	}
	return ds
}

// WriteCSV writes the dataset as the two long-format files CSVProvider reads.
func WriteCSV(ds *Dataset, loadPath, pvPath string) error {
	if err := writeSeries(loadPath, "load", ds, func(h Household) []float64 { return h.Load }); err != nil {
		return err
	}
	return writeSeries(pvPath, "gen", ds, func(h Household) []float64 { return h.PV })
}

func writeSeries(path, column string, ds *Dataset, series func(Household) []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "timestamp", column}); err != nil {
		return err
	}
	for _, h := range ds.Households {
		vals := series(h)
		for i, ts := range ds.Timestamps {
			row := []string{h.ID, ts.Format(time.RFC3339), strconv.FormatFloat(vals[i], 'f', 4, 64)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
