// Package refdata loads static reference datasets shipped alongside the
// service, currently the European towns table used as lookup context by
// enrichment consumers.
package refdata

import (
	"embed"
	"encoding/csv"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/viroco/tracerouting/pkg/util"
)

// The reduced European towns table ships with the binary, so the default
// configuration works without any dataset on disk.
//
//go:embed data/towns_eu_reduce.csv
var bundled embed.FS

// Town one row of the towns reference table.
type Town struct {
	Name    string
	Lat     float64
	Lon     float64
	Feature string
}

// TownCache an immutable towns table bound to the filename it was loaded
// from. One instance is shared process-wide and replaced wholesale when a
// different filename is requested.
type TownCache struct {
	Filename string
	Towns    []Town
}

var (
	currentMu sync.Mutex
	current   *TownCache
)

// LoadTownCache returns the process-wide towns table for the given file,
// reusing the current instance when the filename matches and reloading
// otherwise.
func LoadTownCache(filename string) (*TownCache, error) {
	currentMu.Lock()
	defer currentMu.Unlock()

	if current != nil && current.Filename == filename {
		return current, nil
	}

	towns, err := readTowns(filename)
	if err != nil {
		return nil, err
	}
	current = &TownCache{Filename: filename, Towns: towns}
	return current, nil
}

// openTowns reads from disk first; when the file is absent and its base
// name matches a shipped dataset, the bundled copy is used instead.
func openTowns(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err == nil {
		return f, nil
	}
	if os.IsNotExist(err) {
		if bf, bundledErr := bundled.Open(path.Join("data", filepath.Base(filename))); bundledErr == nil {
			return bf, nil
		}
	}
	return nil, util.WrapErrorf(err, util.ErrBadParamInput, "open towns dataset %q", filename)
}

func readTowns(filename string) ([]Town, error) {
	f, err := openTowns(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "read towns dataset header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"name", "latitude", "longitude", "feature"} {
		if _, ok := col[name]; !ok {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"towns dataset %q is missing column %q", filename, name)
		}
	}

	var towns []Town
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "read towns dataset row")
		}

		lat, err := util.StringToFloat64(record[col["latitude"]])
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "towns dataset latitude")
		}
		lon, err := util.StringToFloat64(record[col["longitude"]])
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "towns dataset longitude")
		}
		towns = append(towns, Town{
			Name:    record[col["name"]],
			Lat:     lat,
			Lon:     lon,
			Feature: record[col["feature"]],
		})
	}
	return towns, nil
}
