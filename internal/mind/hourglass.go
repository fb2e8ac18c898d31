package mind

import "math"

// Band is one status label and the lowest value (inclusive) it covers.
type Band struct {
	Min   float64
	Label string
}

// Band thresholds shared by every axis, highest first.
const (
	BandIntense  = 0.66
	BandStrong   = 0.33
	BandMild     = 0.10
	BandNeutral  = -0.10
	BandLow      = -0.33
	BandVeryLow  = -0.66
	NeutralLabel = "neutral"
)

func bands(labels [6]string) []Band {
	return []Band{
		{Min: BandIntense, Label: labels[0]},
		{Min: BandStrong, Label: labels[1]},
		{Min: BandMild, Label: labels[2]},
		{Min: BandNeutral, Label: NeutralLabel},
		{Min: BandLow, Label: labels[3]},
		{Min: BandVeryLow, Label: labels[4]},
		{Min: math.Inf(-1), Label: labels[5]},
	}
}

// Hourglass maps each axis to its ordered status bands.
var Hourglass = map[Axis][]Band{
	AxisPleasantness: bands([6]string{"ecstasy", "joy", "serenity", "pensiveness", "sadness", "grief"}),
	AxisAttention:    bands([6]string{"vigilance", "anticipation", "interest", "distraction", "surprise", "amazement"}),
	AxisSensitivity:  bands([6]string{"rage", "anger", "annoyance", "apprehension", "fear", "terror"}),
	AxisAptitude:     bands([6]string{"admiration", "trust", "acceptance", "boredom", "disgust", "loathing"}),
}

// Classify returns the status label of value on axis. A value exactly on a
// threshold belongs to the band that threshold opens. NaN reads as neutral.
func Classify(axis Axis, value float64) string {
	bs, ok := Hourglass[axis]
	if !ok {
		return NeutralLabel
	}
	if math.IsNaN(value) {
		value = 0
	}
	for _, b := range bs {
		if value >= b.Min {
			return b.Label
		}
	}
	return bs[len(bs)-1].Label
}

// Reading is one axis of a state with its label.
type Reading struct {
	Axis   Axis
	Value  float64
	Status string
}

// Read classifies every axis of e in display order.
func Read(e Emotions) []Reading {
	out := make([]Reading, 0, len(Axes))
	for _, a := range Axes {
		v := e.Value(a)
		out = append(out, Reading{Axis: a, Value: v, Status: Classify(a, v)})
	}
	return out
}
