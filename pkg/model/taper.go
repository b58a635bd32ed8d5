package model

import "math"

// GainToPosition maps a linear gain coefficient to a 0..1 fader position.
// Unity gain sits at about 0.78 and +6 dB at 1.0.
func GainToPosition(g float64) float64 {
	if g <= 0 {
		return 0
	}
	return math.Pow((6*math.Log2(g)+192)/198, 8)
}

// PositionToGain is the inverse of GainToPosition.
func PositionToGain(pos float64) float64 {
	if pos <= 0 {
		return 0
	}
	return math.Exp2((198*math.Pow(pos, 1.0/8) - 192) / 6)
}

// CoefficientToDB converts a linear coefficient to decibels.
// A zero coefficient yields -Inf; callers that transmit the result clamp it first.
func CoefficientToDB(c float64) float64 {
	return 20 * math.Log10(c)
}

// DBToCoefficient converts decibels to a linear coefficient.
func DBToCoefficient(db float64) float64 {
	return math.Pow(10, db/20)
}
