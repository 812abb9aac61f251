package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/payerline/postcall/internal/anthropic"
)

// minResponseLen is the threshold below which a completion response is
// treated as a failed attempt.
const minResponseLen = 100

const maxTokens = 4096

// Extractor turns transcript text into a raw field-name to value mapping.
// Extraction never fails: any completion error, timeout, or unparseable
// response degrades to the deterministic pattern-based fallback.
type Extractor struct {
	llm    *anthropic.Client
	logger *slog.Logger
}

func New(llm *anthropic.Client, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// Extract processes a prior authorization transcript. The returned map may be
// partial or empty, but Extract itself never returns an error.
func (e *Extractor) Extract(ctx context.Context, turns []string, callID string) map[string]any {
	conversation := strings.Join(turns, "\n")

	e.logger.Info("extracting prior auth entities",
		"call_id", callID,
		"turns", len(turns),
		"transcript_len", len(conversation),
	)

	entities := e.completeAndParse(ctx, fmt.Sprintf(priorAuthPrompt, conversation))
	if entities == nil {
		return FallbackExtract(conversation)
	}

	e.logger.Info("extraction complete", "call_id", callID, "fields", len(entities))
	return entities
}

// ExtractDenial processes a denial management transcript with the wider
// denial field set.
func (e *Extractor) ExtractDenial(ctx context.Context, turns []string, callID string) map[string]any {
	conversation := strings.Join(turns, "\n")

	e.logger.Info("extracting denial mgmt entities",
		"call_id", callID,
		"turns", len(turns),
		"transcript_len", len(conversation),
	)

	entities := e.completeAndParse(ctx, fmt.Sprintf(denialMgmtPrompt, conversation))
	if entities == nil {
		return FallbackExtractDenial(conversation)
	}

	e.logger.Info("extraction complete", "call_id", callID, "fields", len(entities))
	return entities
}

// completeAndParse makes the single bounded completion attempt and returns
// the parsed field map, or nil when the caller should fall back.
func (e *Extractor) completeAndParse(ctx context.Context, prompt string) map[string]any {
	if e.llm == nil {
		e.logger.Warn("no completion client configured, using fallback extraction")
		return nil
	}

	raw, err := e.llm.Complete(ctx, systemPrompt, []anthropic.Message{{Role: "user", Content: prompt}}, maxTokens)
	if err != nil {
		e.logger.Error("completion failed, using fallback extraction", "error", err)
		return nil
	}

	if len(raw) < minResponseLen {
		e.logger.Warn("completion response too short, using fallback extraction", "len", len(raw))
		return nil
	}

	entities, err := parseJSONObject(raw)
	if err != nil {
		e.logger.Error("failed to parse completion response, using fallback extraction", "error", err)
		return nil
	}
	if len(entities) == 0 {
		e.logger.Warn("completion returned empty extraction, using fallback extraction")
		return nil
	}

	return entities
}

// parseJSONObject locates a single JSON object in the response by matching
// the first '{' to the last '}'. If parsing fails it makes one bounded repair
// attempt: append as many closing braces as there are unmatched opening ones,
// then retry once. No further repair is attempted.
func parseJSONObject(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	jsonStr := raw[start : end+1]

	var entities map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &entities); err == nil {
		return dropNulls(entities), nil
	}

	open := strings.Count(jsonStr, "{") - strings.Count(jsonStr, "}")
	if open <= 0 {
		return nil, fmt.Errorf("unparseable JSON object")
	}
	jsonStr += strings.Repeat("}", open)
	if err := json.Unmarshal([]byte(jsonStr), &entities); err != nil {
		return nil, fmt.Errorf("repair parse: %w", err)
	}
	return dropNulls(entities), nil
}

// dropNulls removes null-valued fields so "not found" answers do not count as
// extracted fields downstream.
func dropNulls(entities map[string]any) map[string]any {
	for k, v := range entities {
		if v == nil {
			delete(entities, k)
		}
	}
	return entities
}
