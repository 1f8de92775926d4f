// Package geo provides great-circle math for the guessing game:
// distances, bearings and compass labels.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for distance calculations.
const EarthRadiusKm = 6371

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Direction is one of the eight compass octants.
type Direction string

// Compass octants in clockwise order starting at north.
const (
	North     Direction = "N"
	NorthEast Direction = "NE"
	East      Direction = "E"
	SouthEast Direction = "SE"
	South     Direction = "S"
	SouthWest Direction = "SW"
	West      Direction = "W"
	NorthWest Direction = "NW"
)

var (
	octants = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}
	arrows  = [8]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the Haversine distance between a and b in kilometres,
// rounded to the nearest integer.
func Distance(a, b Point) int {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(math.Max(h, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int(math.Round(EarthRadiusKm * c))
}

// Bearing returns the initial compass bearing in degrees [0,360)
// when travelling from `from` toward `to`.
func Bearing(from, to Point) float64 {
	φ1 := radians(from.Lat)
	φ2 := radians(to.Lat)
	Δλ := radians(to.Lng - from.Lng)

	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)

	θ := math.Atan2(y, x) * 180 / math.Pi
	b := math.Mod(θ+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}

// octantIndex maps a bearing to round(bearing/45) mod 8.
func octantIndex(bearing float64) int {
	i := int(math.Floor(bearing/45+0.5)) % 8
	if i < 0 {
		i += 8
	}
	return i
}

// Octant returns the nearest of the eight compass points for bearing.
func Octant(bearing float64) Direction {
	return octants[octantIndex(bearing)]
}

// Arrow returns the arrow glyph pointing toward bearing.
func Arrow(bearing float64) string {
	return arrows[octantIndex(bearing)]
}

// Heading describes the way from a guess to the target.
type Heading struct {
	Bearing   float64
	Direction Direction
	Arrow     string
}

// HeadingTo returns the bearing, octant and arrow from `from` toward `to`.
func HeadingTo(from, to Point) Heading {
	b := Bearing(from, to)
	return Heading{
		Bearing:   b,
		Direction: Octant(b),
		Arrow:     Arrow(b),
	}
}

// Axis selects the hemisphere letters used by FormatCoordinate.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// FormatCoordinate renders value as degrees, minutes and seconds with a
// hemisphere suffix, for example 52°13'47"N.
func FormatCoordinate(value float64, axis Axis) string {
	abs := math.Abs(value)
	degrees := math.Floor(abs)
	minutes := math.Floor((abs - degrees) * 60)
	seconds := math.Round(((abs-degrees)*60 - minutes) * 60)

	var hemisphere string
	switch axis {
	case Latitude:
		hemisphere = "N"
		if value < 0 {
			hemisphere = "S"
		}
	default:
		hemisphere = "E"
		if value < 0 {
			hemisphere = "W"
		}
	}

	return fmt.Sprintf("%d°%d'%d\"%s", int(degrees), int(minutes), int(seconds), hemisphere)
}

// FormatPoint renders both coordinates of p, latitude first.
func FormatPoint(p Point) string {
	return FormatCoordinate(p.Lat, Latitude) + " " + FormatCoordinate(p.Lng, Longitude)
}

// ErrInvalidPoint is returned by ParsePoint.
var ErrInvalidPoint = errors.New("invalid point")

// ParsePoint reads a "lat,lng" pair in decimal degrees.
func ParsePoint(s string) (Point, error) {
	latText, lngText, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}
	if !(lat >= -90 && lat <= 90) || !(lng >= -180 && lng <= 180) {
		return Point{}, fmt.Errorf("%w: %q out of range", ErrInvalidPoint, s)
	}
	return Point{Lat: lat, Lng: lng}, nil
}
