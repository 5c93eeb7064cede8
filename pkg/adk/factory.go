package adk

import (
	"context"
	"fmt"
)

func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (LLMProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for %s", providerName)
	}
	switch providerName {
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}
