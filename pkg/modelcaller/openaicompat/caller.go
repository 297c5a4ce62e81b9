// Package openaicompat implements the ModelCaller contract for the two
// candidate shapes the runtime ever dispatches to: the pluggable
// openai_compatible external endpoints, via github.com/openai/openai-go/v3
// pointed at each candidate's base_url, and the session default, via
// github.com/anthropics/anthropic-sdk-go. Both back the model transport the
// core's fan-out executor calls through its injected modelcompare.ModelCaller.
package openaicompat

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/sipeed/modelcompare/pkg/modelcompare"
)

// Caller dispatches to openai-compatible endpoints, optionally pacing calls
// per base URL with a token-bucket limiter (golang.org/x/time/rate) so a
// slow/rate-limited candidate can't starve the others in the same run.
type Caller struct {
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewCaller builds a Caller. ratePerSecond<=0 disables pacing entirely.
func NewCaller(ratePerSecond float64) *Caller {
	return &Caller{limiters: make(map[string]*rate.Limiter), rps: ratePerSecond}
}

func (c *Caller) limiterFor(baseURL string) *rate.Limiter {
	if c.rps <= 0 {
		return nil
	}
	if l, ok := c.limiters[baseURL]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(c.rps), 1)
	c.limiters[baseURL] = l
	return l
}

// Call implements modelcompare.ModelCaller for openai_compatible candidates.
func (c *Caller) Call(ctx context.Context, candidate modelcompare.Candidate, payload modelcompare.Payload, timeoutSec int) (any, error) {
	if l := c.limiterFor(candidate.BaseURL); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, fmt.Errorf("openaicompat: rate limiter: %w", err)
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(candidate.APIKey)}
	if candidate.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(candidate.BaseURL))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: candidate.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(renderQuestion(payload)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openaicompat: %s: %w", candidate.ID, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openaicompat: %s: empty response", candidate.ID)
	}
	return resp.Choices[0].Message.Content, nil
}

// DefaultCaller dispatches to the session default candidate via the
// Anthropic Messages API.
type DefaultCaller struct {
	APIKey string
}

// Call implements modelcompare.ModelCaller for the session default candidate.
func (c *DefaultCaller) Call(ctx context.Context, candidate modelcompare.Candidate, payload modelcompare.Payload, timeoutSec int) (any, error) {
	client := anthropic.NewClient(anthropicoption.WithAPIKey(c.APIKey))

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(candidate.Model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(renderQuestion(payload))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openaicompat: default candidate %s: %w", candidate.ID, err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("openaicompat: default candidate %s: empty response", candidate.ID)
	}
	return resp.Content[0].Text, nil
}

// renderQuestion flattens a payload into the single user-turn prompt both
// transports send: the question, followed by the context pack's facts and
// snippets verbatim when the bridge produced one.
func renderQuestion(payload modelcompare.Payload) string {
	if payload.ContextPack == nil {
		return payload.Question
	}
	out := payload.Question + "\n\n--- context ---\n"
	for _, f := range payload.ContextPack.Facts {
		out += f + "\n"
	}
	for _, s := range payload.ContextPack.Snippets {
		out += fmt.Sprintf("\n%s:%d-%d\n%s\n", s.Path, s.StartLine, s.EndLine, s.Content)
	}
	return out
}
