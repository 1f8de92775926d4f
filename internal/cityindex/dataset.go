package cityindex

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"city-coords/internal/model"
)

//go:embed data/capitals.json data/aliases.json
var dataFS embed.FS

// Errors returned while loading a dataset.
var (
	ErrEmptyDataset  = errors.New("dataset has no cities")
	ErrDuplicateCity = errors.New("duplicate city name")
	ErrBadCoordinate = errors.New("coordinate out of range")
)

// Localized holds translations keyed by language. English is the canonical
// record value and is not repeated here.
type Localized map[model.Lang]string

// Entry is one capital with its translations.
type Entry struct {
	model.City
	Names     Localized `json:"names"`
	Countries Localized `json:"countries"`
}

// AliasTable maps a canonical name and language to extra surface forms,
// such as initialisms ("USA") or former names ("Kiev").
type AliasTable struct {
	Cities    map[string]map[model.Lang][]string `json:"cities"`
	Countries map[string]map[model.Lang][]string `json:"countries"`
}

// City returns the aliases of a city in lang.
func (t AliasTable) City(name string, lang model.Lang) []string {
	return t.Cities[name][lang]
}

// Country returns the aliases of a country in lang.
func (t AliasTable) Country(country string, lang model.Lang) []string {
	return t.Countries[country][lang]
}

// Dataset is the static reference data an Index is built from.
type Dataset struct {
	Entries []Entry
	Aliases AliasTable
}

// Validate checks the dataset invariants: non-empty, unique city names and
// coordinates inside their valid ranges.
func (d *Dataset) Validate() error {
	if len(d.Entries) == 0 {
		return ErrEmptyDataset
	}
	seen := make(map[string]struct{}, len(d.Entries))
	for _, e := range d.Entries {
		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCity, e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.Lat < -90 || e.Lat > 90 || e.Lng < -180 || e.Lng > 180 {
			return fmt.Errorf("%w: %s (%v, %v)", ErrBadCoordinate, e.Name, e.Lat, e.Lng)
		}
	}
	return nil
}

var (
	embeddedOnce sync.Once
	embedded     *Dataset
	embeddedErr  error
)

// Embedded returns the capital dataset compiled into the binary.
// It is parsed once and shared; callers must not modify it.
func Embedded() (*Dataset, error) {
	embeddedOnce.Do(func() {
		embedded, embeddedErr = loadEmbedded()
	})
	return embedded, embeddedErr
}

func loadEmbedded() (*Dataset, error) {
	raw, err := dataFS.ReadFile("data/capitals.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read capitals: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds.Entries); err != nil {
		return nil, fmt.Errorf("failed to parse capitals: %w", err)
	}

	raw, err = dataFS.ReadFile("data/aliases.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read aliases: %w", err)
	}
	if err := json.Unmarshal(raw, &ds.Aliases); err != nil {
		return nil, fmt.Errorf("failed to parse aliases: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}
