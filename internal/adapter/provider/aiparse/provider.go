// Package aiparse asks Claude to recognize wagers the deterministic parsers
// could not.
package aiparse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// Provider is the AI fallback of the parsing chain. It is strictly
// best-effort: callers treat every error as "nothing recognized".
type Provider struct {
	client anthropic.Client
	model  string
	log    *slog.Logger
}

// NewProvider creates a Provider around a configured Anthropic client.
func NewProvider(client anthropic.Client, model string, logger *slog.Logger) *Provider {
	return &Provider{
		client: client,
		model:  model,
		log:    logger.With("adapter", "aiparse"),
	}
}

// aiEntry is the wire shape the model is asked to produce.
type aiEntry struct {
	Category string   `json:"category"`
	Region   string   `json:"region"`
	Targets  []string `json:"targets"`
	Amount   float64  `json:"amount"`
}

type aiResponse struct {
	Entries []aiEntry `json:"entries"`
}

// Parse sends the raw text to the model and maps the response into one slip.
// Entries that fail domain validation are dropped, not surfaced as errors.
func (p *Provider) Parse(ctx context.Context, rawText, regionHint string) (*domain.BetSlip, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(rawText, regionHint))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai parse call: %w", err)
	}
	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("empty ai response")
	}

	jsonStr, err := extractJSON(msg.Content[0].Text)
	if err != nil {
		return nil, fmt.Errorf("extract json from ai response: %w", err)
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("decode ai response: %w", err)
	}

	slip := &domain.BetSlip{
		Region:  regionHint,
		RawText: rawText,
		Method:  domain.ParseMethodAI,
	}
	for _, e := range resp.Entries {
		region, ok := domain.NormalizeRegion(e.Region)
		if !ok {
			region = regionHint
		}
		entry := domain.BetEntry{
			Category: domain.Category(e.Category),
			Region:   region,
			Targets:  e.Targets,
			Amount:   e.Amount,
		}
		if err := entry.Validate(); err != nil {
			p.log.DebugContext(ctx, "ai entry dropped", slog.String("error", err.Error()))
			continue
		}
		entry.TotalCost = entry.ComputeCost()
		slip.Entries = append(slip.Entries, entry)
	}

	p.log.InfoContext(ctx, "ai parse finished", slog.Int("entries", len(slip.Entries)))
	return slip, nil
}

func buildPrompt(rawText, regionHint string) string {
	return fmt.Sprintf(`You are a Mark Six (六合彩) bet slip reader.

Extract every wager from the message below. The default lottery region is %q.

Message:
%s

Output ONLY a valid JSON object matching this exact schema:
{
  "entries": [
    {
      "category": "<zodiac|number_list|multiplier|six_zodiac|special|flat>",
      "region": "<lottery region named in the message, or empty>",
      "targets": ["<two-digit numbers 01..49>"],
      "amount": <stake per target for zodiac/number_list/special, total stake otherwise>
    }
  ]
}

Rules:
- Zodiac sign bets list every number of the sign as targets (蛇=01,13,25,37,49 etc.)
- 大小单双 plays expand to the matching numbers with category "flat"
- Skip greetings, chat noise and anything that is not a wager
- Output ONLY the JSON, no markdown, no explanations`, regionHint, rawText)
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
