package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/common"
)

// providers maps a provider name to its constructor.
var providers = map[string]func(Config) (Client, error){
	"openai": func(cfg Config) (Client, error) {
		c, err := newOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	"anthropic": func(cfg Config) (Client, error) {
		c, err := newAnthropicClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
}

// Providers lists the supported provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewClient creates a raw provider client with no caching, rate limiting or retries.
func NewClient(cfg Config) (Client, error) {
	build, ok := providers[strings.ToLower(cfg.Provider)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported LLM provider %q (want one of %s)",
			common.ErrInvalidConfig, cfg.Provider, strings.Join(Providers(), ", "))
	}
	return build(cfg)
}
