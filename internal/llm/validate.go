package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

var (
	entrySchemaOnce sync.Once
	entrySchema     *jsonschema.Schema
	entrySchemaErr  error
)

func compiledEntrySchema() (*jsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		b, err := json.Marshal(MatchEntrySchema())
		if err != nil {
			entrySchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("match_entry.json", bytes.NewReader(b)); err != nil {
			entrySchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		entrySchema, entrySchemaErr = compiler.Compile("match_entry.json")
	})
	return entrySchema, entrySchemaErr
}

// ParseMatches turns raw oracle output into validated match results.
// It never fails: unparseable output yields an empty slice and invalid
// entries are dropped. Oracle ordering is preserved.
func ParseMatches(raw string, logger *zap.Logger) []models.MatchResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := []models.MatchResult{}

	cleanJSON := StripCodeFence(raw)
	if cleanJSON == "" {
		logger.Warn("Empty oracle output")
		return out
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(cleanJSON), &envelope); err != nil {
		metrics.DroppedMatchesTotal.WithLabelValues("unparseable").Inc()
		logger.Error("Failed to parse oracle output",
			zap.Error(err),
			zap.String("original_response", truncate(raw, 500)))
		return out
	}

	entries, ok := envelope["matches"].([]any)
	if !ok {
		metrics.DroppedMatchesTotal.WithLabelValues("no_matches_array").Inc()
		logger.Warn("Oracle output has no matches array",
			zap.String("original_response", truncate(raw, 500)))
		return out
	}

	schema, err := compiledEntrySchema()
	if err != nil {
		// only reachable if the embedded schema is broken
		logger.Error("Match entry schema unavailable", zap.Error(err))
		return out
	}

	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			dropEntry(logger, i, "not an object")
			continue
		}

		coerceConfidence(entry)

		if err := schema.Validate(entry); err != nil {
			dropEntry(logger, i, err.Error())
			continue
		}

		confidence, ok := entry["confidence"].(float64)
		if !ok || math.IsNaN(confidence) || math.IsInf(confidence, 0) {
			dropEntry(logger, i, "confidence is not a finite number")
			continue
		}

		out = append(out, models.MatchResult{
			ID:         strings.TrimSpace(entry["id"].(string)),
			Confidence: clamp(confidence, 0, 100),
			Reasoning:  strings.TrimSpace(entry["reasoning"].(string)),
		})
	}

	logger.Debug("Parsed oracle output",
		zap.Int("entries", len(entries)),
		zap.Int("valid", len(out)))

	return out
}

// StripCodeFence removes a surrounding Markdown code block if present
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// coerceConfidence accepts numeric strings such as "85" or "85%".
func coerceConfidence(entry map[string]any) {
	s, ok := entry["confidence"].(string)
	if !ok {
		return
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		entry["confidence"] = f
	}
}

func dropEntry(logger *zap.Logger, index int, reason string) {
	metrics.DroppedMatchesTotal.WithLabelValues("invalid_entry").Inc()
	logger.Warn("Dropping malformed match entry",
		zap.Int("index", index),
		zap.String("reason", reason))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
