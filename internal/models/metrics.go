package models

import "strings"

// Pace returns minutes per kilometre.
func Pace(distanceKm, durationMin float64) float64 {
	return durationMin / distanceKm
}

// Speed returns kilometres per hour.
func Speed(distanceKm, durationMin float64) float64 {
	return distanceKm / (durationMin / 60)
}

// Field names a sortable numeric workout field.
type Field string

const (
	FieldDistance      Field = "distanceKm"
	FieldDuration      Field = "durationMin"
	FieldPace          Field = "paceMinPerKm"
	FieldCadence       Field = "cadenceSpm"
	FieldSpeed         Field = "speedKmPerH"
	FieldElevationGain Field = "elevationGainM"
)

// fieldAliases also accepts the short names the list menu uses.
var fieldAliases = map[string]Field{
	"distancekm":     FieldDistance,
	"distance":       FieldDistance,
	"durationmin":    FieldDuration,
	"duration":       FieldDuration,
	"paceminperkm":   FieldPace,
	"pace":           FieldPace,
	"cadencespm":     FieldCadence,
	"cadence":        FieldCadence,
	"speedkmperh":    FieldSpeed,
	"speed":          FieldSpeed,
	"elevationgainm": FieldElevationGain,
	"elevationgain":  FieldElevationGain,
	"elevation":      FieldElevationGain,
}

// ParseField resolves a field name or alias, case-insensitively.
func ParseField(name string) (Field, bool) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Value returns w's value for f. ok is false when f does not exist on w's kind.
func (w Workout) Value(f Field) (v float64, ok bool) {
	switch f {
	case FieldDistance:
		return w.DistanceKm, true
	case FieldDuration:
		return w.DurationMin, true
	case FieldPace:
		if w.Running != nil {
			return w.Running.PaceMinPerKm, true
		}
	case FieldCadence:
		if w.Running != nil {
			return w.Running.CadenceSPM, true
		}
	case FieldSpeed:
		if w.Cycling != nil {
			return w.Cycling.SpeedKmPerH, true
		}
	case FieldElevationGain:
		if w.Cycling != nil {
			return w.Cycling.ElevationGainM, true
		}
	}
	return 0, false
}
