// Package ai holds the impostor's decision engine: whether to speak, what
// to say, how the raw model output is filtered, and how it votes.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"shapechat/internal/config"
)

// Generator is the outbound text-generation collaborator
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Gemini generates chat lines using Google's Gemini API
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGemini creates a Gemini-backed generator
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
	}, nil
}

// Generate runs one bounded, persona-steered completion
func (g *Gemini) Generate(ctx context.Context, system, user string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return result.Text(), nil
}

var _ Generator = (*Gemini)(nil)
