// Package llm provides a thin text-generation client used by the local
// remediator when no external AI bridge is configured.
package llm

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultTemperature keeps generated metadata close to the source text.
const DefaultTemperature float32 = 0.2

// Config holds the model configuration for the client
type Config struct {
	Model       string
	Temperature float32
	// MaxOutputTokens caps response length; zero leaves the provider default.
	MaxOutputTokens int32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Model:           DefaultModel,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: 256,
	}
}

// WithModel returns a copy of the config using a different model.
// An empty name keeps the current model.
func (c *Config) WithModel(model string) *Config {
	out := *c
	if model != "" {
		out.Model = model
	}
	return &out
}
