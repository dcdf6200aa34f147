package service

import (
	"context"
	"strings"

	"core/internal/model"
	"core/internal/utils"

	"github.com/rs/zerolog"
)

// IntentExtractor turns raw user text into a structured intent with one
// zero-temperature oracle call.
type IntentExtractor struct {
	oracle    Oracle
	modelName string
	schema    []string
	log       zerolog.Logger
}

// NewIntentExtractor creates a new intent extractor.
func NewIntentExtractor(oracle Oracle, modelName string, log zerolog.Logger) *IntentExtractor {
	return &IntentExtractor{
		oracle:    oracle,
		modelName: modelName,
		schema:    model.TableSchema,
		log:       log.With().Str("component", "intent").Logger(),
	}
}

// Parse extracts the intent for userQuery. It never returns an error: any
// transport or parsing failure yields the deterministic fallback intent with
// its error marker set, which the orchestrator must detect and short-circuit.
func (e *IntentExtractor) Parse(ctx context.Context, userQuery string) *model.Intent {
	userQuery = strings.TrimSpace(userQuery)
	if userQuery == "" {
		return model.FallbackIntent("empty query")
	}

	text, err := e.oracle.GenerateText(ctx, e.modelName, intentPrompt(e.schema, userQuery), GenConfig{
		Temperature:     0,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("intent extraction failed")
		return model.FallbackIntent(err.Error())
	}

	var intent model.Intent
	if err := utils.ParseAIJSON(text, &intent); err != nil {
		e.log.Warn().Err(err).Msg("intent response unparsable")
		return model.FallbackIntent(err.Error())
	}

	// The oracle occasionally omits fields despite the contract; normalize
	// to the strict type internal stages consume.
	if intent.Task == "" {
		intent.Task = model.TaskQuery
	}
	if intent.Entities.Companies == nil {
		intent.Entities.Companies = []string{}
	}
	if intent.Entities.Models == nil {
		intent.Entities.Models = []string{}
	}
	if intent.Constraints == nil {
		intent.Constraints = []model.Constraint{}
	}

	return &intent
}
