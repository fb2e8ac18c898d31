package mind

import "math"

// HumorCoefficients weigh a message signal into an emotion delta.
type HumorCoefficients struct {
	Pleasantness        float64 // times sentiment
	OffensePleasantness float64 // added when offensive
	Attention           float64 // times |sentiment|
	Sensitivity         float64 // times |sentiment|
	OffenseAptitude     float64 // aptitude when offensive
	OffenseAffinity     float64 // added to affinity when offensive
}

var DefaultHumorCoefficients = HumorCoefficients{
	Pleasantness:        0.10,
	OffensePleasantness: -0.20,
	Attention:           0.05,
	Sensitivity:         0.05,
	OffenseAptitude:     -0.10,
	OffenseAffinity:     -0.5,
}

// BoredomPenalty is applied once per idle notification.
var BoredomPenalty = Delta{Aptitude: -0.1}

func normSentiment(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return DefaultBounds.Clamp(s)
}

// ComputeDelta turns a message sentiment in [-1, 1] and an offense flag into
// an emotion delta. Positive sentiment never lowers pleasantness unless the
// message is offensive.
func (c HumorCoefficients) ComputeDelta(sentiment float64, offensive bool) Delta {
	s := normSentiment(sentiment)
	m := math.Abs(s)
	d := Delta{
		Pleasantness: c.Pleasantness * s,
		Attention:    c.Attention * m,
		Sensitivity:  c.Sensitivity * m,
	}
	if offensive {
		d.Pleasantness += c.OffensePleasantness
		d.Aptitude = c.OffenseAptitude
	}
	return d
}

// AffinityDelta is how much a member's standing moves for one message.
func (c HumorCoefficients) AffinityDelta(sentiment float64, offensive bool) float64 {
	s := normSentiment(sentiment)
	if offensive {
		return s + c.OffenseAffinity
	}
	return s
}

// ComputeDelta uses DefaultHumorCoefficients.
func ComputeDelta(sentiment float64, offensive bool) Delta {
	return DefaultHumorCoefficients.ComputeDelta(sentiment, offensive)
}
