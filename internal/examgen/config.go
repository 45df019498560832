package examgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators is the ordered list of validators run on every generated
	// or corrected exam. The first failure stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for exam generation and correction.
	MaxTokens int

	// ReviewMaxTokens is the token budget for a review.
	ReviewMaxTokens int

	// Temperature controls randomness when writing questions (0.0-1.0).
	Temperature float64

	// ReviewTemperature is used when reviewing an exam.
	ReviewTemperature float64
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
		},
		MaxTokens:         8192,
		ReviewMaxTokens:   2048,
		Temperature:       0.7,
		ReviewTemperature: 0.2,
	}
}
