package summarize

import (
	"github.com/magiconair/properties"
)

const (
	DefaultSystemPrompt = "You are an assistant that summarizes text concisely."
	DefaultUserPrefix   = "Summarize this:\n\n"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 300
)

// Prompts controls the request sent to the completion provider. An empty
// Model means the provider's default.
type Prompts struct {
	Model        string
	SystemPrompt string
	UserPrefix   string
	Temperature  float64
	MaxTokens    int
}

func DefaultPrompts() Prompts {
	return Prompts{
		SystemPrompt: DefaultSystemPrompt,
		UserPrefix:   DefaultUserPrefix,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

// LoadPrompts reads a .properties file; keys that are absent keep their
// defaults. An empty path yields the defaults.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return p, err
	}
	return fromProperties(props, p), nil
}

func fromProperties(props *properties.Properties, p Prompts) Prompts {
	p.Model = props.GetString("model", p.Model)
	p.SystemPrompt = props.GetString("system_prompt", p.SystemPrompt)
	p.UserPrefix = props.GetString("user_prefix", p.UserPrefix)
	p.Temperature = props.GetFloat64("temperature", p.Temperature)
	p.MaxTokens = props.GetInt("max_tokens", p.MaxTokens)
	return p
}
