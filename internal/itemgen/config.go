package itemgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every item; the first failure rejects
	// the whole batch.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxAvoid caps how many already-served stems go into the prompt.
	MaxAvoid int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&DistinctChoicesValidator{},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		MaxAvoid:    20,
	}
}
