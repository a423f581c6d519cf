// Package ability implements the two-parameter logistic response model
// used to estimate learner ability and pick informative items.
package ability

import "math"

const (
	DefaultDiscrimination = 1.0
	DefaultDifficulty     = 0.0
)

// Params are the item parameters of the model.
type Params struct {
	A float64 // discrimination
	B float64 // difficulty
}

// Resolve fills absent parameters with the defaults a=1, b=0.
func Resolve(a, b *float64) Params {
	p := Params{A: DefaultDiscrimination, B: DefaultDifficulty}
	if a != nil {
		p.A = *a
	}
	if b != nil {
		p.B = *b
	}
	return p
}

// ProbCorrect is p(θ) = 1 / (1 + e^{-a(θ-b)}).
func ProbCorrect(theta, a, b float64) float64 {
	return 1.0 / (1.0 + math.Exp(-a*(theta-b)))
}

// Information is I(θ) = a² p(θ) (1 - p(θ)).
func Information(theta, a, b float64) float64 {
	p := ProbCorrect(theta, a, b)
	return a * a * p * (1 - p)
}

// UpdateTheta takes one gradient-ascent step on the response
// log-likelihood: θ' = θ + lr·a·(y - p(θ)).
func UpdateTheta(theta, a, b float64, correct bool, lr float64) float64 {
	y := 0.0
	if correct {
		y = 1.0
	}
	return theta + lr*a*(y-ProbCorrect(theta, a, b))
}

// MostInformative returns the index of the entry with the highest
// information at theta, or -1 for an empty slice. Ties keep the first.
func MostInformative(theta float64, params []Params) int {
	best := -1
	bestInfo := math.Inf(-1)
	for i, p := range params {
		if info := Information(theta, p.A, p.B); info > bestInfo {
			best, bestInfo = i, info
		}
	}
	return best
}
