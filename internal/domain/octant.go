package domain

import (
	"fmt"
	"math"
	"strings"
)

// Octant is one of the eight compass directions. The zero value is
// OctantUnknown, used when a provider omits the direction.
type Octant uint8

const (
	OctantUnknown Octant = iota
	N
	NE
	E
	SE
	S
	SW
	W
	NW
)

// NumOctants is the number of known compass octants.
const NumOctants = 8

var octantNames = [...]string{"", "N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Octants lists the known octants clockwise from north.
func Octants() [NumOctants]Octant {
	return [NumOctants]Octant{N, NE, E, SE, S, SW, W, NW}
}

// Known reports whether o is one of the eight compass octants.
func (o Octant) Known() bool { return o >= N && o <= NW }

func (o Octant) String() string {
	if !o.Known() {
		return "unknown"
	}
	return octantNames[o]
}

// index maps a known octant to 0..7.
func (o Octant) index() int { return int(o) - 1 }

// Degrees returns the center bearing of the octant.
func (o Octant) Degrees() float64 {
	if !o.Known() {
		return math.NaN()
	}
	return float64(o.index()) * 45
}

// MarshalText renders the octant as its compass abbreviation.
func (o Octant) MarshalText() ([]byte, error) {
	if !o.Known() {
		return []byte(""), nil
	}
	return []byte(o.String()), nil
}

// UnmarshalText parses a compass abbreviation; see ParseOctant.
func (o *Octant) UnmarshalText(b []byte) error {
	v, err := ParseOctant(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// sixteenPoint maps 16-point compass names to bearings.
var sixteenPoint = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// ParseOctant parses an 8- or 16-point compass abbreviation. 16-point names
// snap to the nearest octant by bearing (NNE → NE, WNW → NW). Empty strings,
// "VRB" and "variable" parse to OctantUnknown without error.
func ParseOctant(s string) (Octant, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "", "VRB", "VARIABLE", "UNKNOWN":
		return OctantUnknown, nil
	}
	deg, ok := sixteenPoint[s]
	if !ok {
		return OctantUnknown, fmt.Errorf("unknown compass direction %q", s)
	}
	return OctantFromDegrees(deg), nil
}

// OctantFromDegrees snaps a bearing in degrees to the nearest octant.
// Non-finite bearings return OctantUnknown.
func OctantFromDegrees(deg float64) Octant {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return OctantUnknown
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/45)) % NumOctants
	return Octant(idx + 1)
}
