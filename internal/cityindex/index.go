// Package cityindex holds the capital city dataset and a fuzzy,
// multi-language search over city and country names.
package cityindex

import (
	"errors"
	"math"
	"sort"
	"time"

	"city-coords/internal/geo"
	"city-coords/internal/model"
)

// Defaults for search.
const (
	DefaultLimit     = 5
	DefaultThreshold = 0.4
)

// Field weights. The active language outranks the others and names
// outrank countries.
const (
	weightActiveName    = 2.0
	weightOtherName     = 1.0
	weightActiveCountry = 1.5
	weightOtherCountry  = 0.5
)

// ErrCityNotFound is returned by ByName for unknown names.
var ErrCityNotFound = errors.New("city not found")

type fieldKind int

const (
	kindName fieldKind = iota
	kindCountry
)

// field is one searchable surface form of a city.
type field struct {
	text []rune
	lang model.Lang
	kind fieldKind
}

func (f field) weight(active model.Lang) float64 {
	switch {
	case f.kind == kindName && f.lang == active:
		return weightActiveName
	case f.kind == kindName:
		return weightOtherName
	case f.lang == active:
		return weightActiveCountry
	default:
		return weightOtherCountry
	}
}

// Index is an immutable, concurrency-safe search structure over a Dataset.
type Index struct {
	cities    []model.City
	byName    map[string]int
	names     []Localized
	countries []Localized
	fields    [][]field
	limit     int
	threshold float64
	cache     *searchCache
}

// Option configures an Index.
type Option func(*Index)

// WithLimit caps the number of search results.
func WithLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.limit = n
		}
	}
}

// WithThreshold sets the worst fuzzy score still counted as a match.
func WithThreshold(t float64) Option {
	return func(ix *Index) {
		if t > 0 {
			ix.threshold = t
		}
	}
}

// WithCache memoizes search results for ttl, keeping at most capacity
// queries. A zero ttl disables caching.
func WithCache(ttl time.Duration, capacity uint64) Option {
	return func(ix *Index) {
		if ttl > 0 {
			ix.cache = newSearchCache(ttl, capacity)
		}
	}
}

// New builds an Index over ds.
func New(ds *Dataset, opts ...Option) (*Index, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	ix := &Index{
		cities:    make([]model.City, len(ds.Entries)),
		byName:    make(map[string]int, len(ds.Entries)),
		names:     make([]Localized, len(ds.Entries)),
		countries: make([]Localized, len(ds.Entries)),
		fields:    make([][]field, len(ds.Entries)),
		limit:     DefaultLimit,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(ix)
	}

	for i, e := range ds.Entries {
		ix.cities[i] = e.City
		ix.byName[e.Name] = i
		ix.names[i] = e.Names
		ix.countries[i] = e.Countries
		ix.fields[i] = buildFields(e, ds.Aliases)
	}
	return ix, nil
}

// NewEmbedded builds an Index over the embedded capital dataset.
func NewEmbedded(opts ...Option) (*Index, error) {
	ds, err := Embedded()
	if err != nil {
		return nil, err
	}
	return New(ds, opts...)
}

func buildFields(e Entry, aliases AliasTable) []field {
	type key struct {
		text string
		lang model.Lang
		kind fieldKind
	}
	var fields []field
	seen := make(map[key]bool)
	add := func(text string, lang model.Lang, kind fieldKind) {
		k := key{text: normalize(text), lang: lang, kind: kind}
		if k.text == "" || seen[k] {
			return
		}
		seen[k] = true
		fields = append(fields, field{text: []rune(k.text), lang: lang, kind: kind})
	}

	for _, lang := range model.Langs() {
		name, country := e.Name, e.Country
		if lang != model.LangEN {
			if v, ok := e.Names[lang]; ok && v != "" {
				name = v
			}
			if v, ok := e.Countries[lang]; ok && v != "" {
				country = v
			}
		}
		add(name, lang, kindName)
		for _, a := range aliases.City(e.Name, lang) {
			add(a, lang, kindName)
		}
		add(country, lang, kindCountry)
		for _, a := range aliases.Country(e.Country, lang) {
			add(a, lang, kindCountry)
		}
	}
	return fields
}

// Len returns the number of cities.
func (ix *Index) Len() int {
	return len(ix.cities)
}

// At returns the city at dataset position i.
func (ix *Index) At(i int) model.City {
	return ix.cities[i]
}

// Cities returns a copy of all cities in dataset order.
func (ix *Index) Cities() []model.City {
	out := make([]model.City, len(ix.cities))
	copy(out, ix.cities)
	return out
}

// ByName looks a city up by its canonical name.
func (ix *Index) ByName(name string) (model.City, error) {
	i, ok := ix.byName[name]
	if !ok {
		return model.City{}, ErrCityNotFound
	}
	return ix.cities[i], nil
}

// DisplayName returns the city name in lang, falling back to English.
func (ix *Index) DisplayName(c model.City, lang model.Lang) string {
	if i, ok := ix.byName[c.Name]; ok {
		if v := ix.names[i][lang]; v != "" {
			return v
		}
	}
	return c.Name
}

// DisplayCountry returns the country name in lang, falling back to English.
func (ix *Index) DisplayCountry(c model.City, lang model.Lang) string {
	if i, ok := ix.byName[c.Name]; ok {
		if v := ix.countries[i][lang]; v != "" {
			return v
		}
	}
	return c.Country
}

// Nearest returns the capital closest to p and its distance in km.
func (ix *Index) Nearest(p geo.Point) (model.City, int) {
	best, bestDist := 0, math.MaxInt
	for i, c := range ix.cities {
		if d := geo.Distance(p, c.Point()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return ix.cities[best], bestDist
}

type hit struct {
	pos       int
	relevance float64
}

// Search returns up to the configured limit of cities matching query,
// best first. Fields in lang weigh more than other languages. An empty or
// blank query returns no results.
func (ix *Index) Search(query string, lang model.Lang) []model.City {
	q := normalize(query)
	if q == "" {
		return nil
	}
	lang = model.ParseLang(string(lang))

	if ix.cache != nil {
		if res, ok := ix.cache.get(lang, q); ok {
			return res
		}
	}

	res := ix.search([]rune(q), lang)
	if ix.cache != nil {
		ix.cache.set(lang, q, res)
	}
	return res
}

func (ix *Index) search(pattern []rune, lang model.Lang) []model.City {
	var hits []hit
	for pos, fields := range ix.fields {
		relevance := 0.0
		for _, f := range fields {
			score := fuzzyScore(pattern, f.text)
			if score > ix.threshold {
				continue
			}
			if r := f.weight(lang) * (1 - score) * coverage(pattern, f.text); r > relevance {
				relevance = r
			}
		}
		if relevance > 0 {
			hits = append(hits, hit{pos: pos, relevance: relevance})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].relevance > hits[j].relevance
	})
	if len(hits) > ix.limit {
		hits = hits[:ix.limit]
	}

	out := make([]model.City, len(hits))
	for i, h := range hits {
		out[i] = ix.cities[h.pos]
	}
	return out
}

// coverage favours fields the query spans entirely, so "USA" ranks the
// country alias above cities that merely contain the letters.
func coverage(pattern, text []rune) float64 {
	if len(text) <= len(pattern) {
		return 1
	}
	return math.Sqrt(float64(len(pattern)) / float64(len(text)))
}

// Close releases the search cache, if any.
func (ix *Index) Close() {
	if ix.cache != nil {
		ix.cache.stop()
	}
}
