package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"core/internal/model"
	"core/internal/repository"

	"github.com/rs/zerolog"
)

// User-facing messages for the failure branches. The envelope always carries
// one of these instead of an error so a conversational turn never 500s.
const (
	msgIntentFailed = "❌ **Oops!** I couldn't process your query right now. Please try again in a moment, or rephrase your question."
	msgBadSQL       = "❌ **Sorry, I couldn't generate a proper search query.** Please try rephrasing your question or use the sidebar filters to browse phones."
	msgQueryFailed  = "❌ **Oops!** Something went wrong while searching. Please try again or rephrase your query."
	msgNoResults    = "😔 **No phones found matching your criteria.**\n\n**Suggestions:**\n- Try adjusting your filters in the sidebar\n- Ask for recommendations (e.g., 'Best phone under ₹50,000')\n- Check if the model name is spelled correctly"
	msgModelsMissed = "😔 **Sorry, I couldn't find those phones in our database.**\n\n**Try:**\n- Check the spelling of model names\n- Use the sidebar filters to browse available phones\n- Ask for recommendations instead (e.g., 'Best phone under ₹50,000')"
	msgSummaryDown  = "✅ Found matching phones, but I couldn't write the comparison right now. The raw results are attached below — please try again for the summary."
	msgRefusal      = "Please ask about mobile phones instead."
	msgUnknownTask  = "🤔 **I'm not sure how to help with that.** Please ask about:\n- Phone comparisons\n- Recommendations\n- Phone specifications\n- General tech questions about phones"
)

// StatusFunc receives progress notes during a turn; used to feed the SSE
// stream. May be nil.
type StatusFunc func(msg string)

// IntentParser is the intent-extraction stage boundary.
type IntentParser interface {
	Parse(ctx context.Context, userQuery string) *model.Intent
}

// SimilarityMatcher is the name-correction stage boundary.
type SimilarityMatcher interface {
	FindSimilar(ctx context.Context, text, vtype, companyFilter string) (string, bool)
}

// QueryGenerator is the SQL-synthesis stage boundary.
type QueryGenerator interface {
	Generate(ctx context.Context, intent *model.Intent) (string, error)
}

// RowQuerier executes generated SQL against the catalog.
type RowQuerier interface {
	Query(ctx context.Context, query string, args ...any) ([]model.Row, error)
}

// Narrator is the answer-composition stage boundary.
type Narrator interface {
	Summarize(ctx context.Context, userQuery string, rows []model.Row) (string, error)
	AnswerGeneral(ctx context.Context, userQuery string) (string, error)
}

// Processor runs the full conversational pipeline: intent extraction, name
// correction, filter merge, SQL generation, execution and narration.
type Processor struct {
	intents   IntentParser
	matcher   SimilarityMatcher
	generator QueryGenerator
	catalog   RowQuerier
	narrator  Narrator
	log       zerolog.Logger
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(intents IntentParser, matcher SimilarityMatcher, generator QueryGenerator, catalog RowQuerier, narrator Narrator, log zerolog.Logger) *Processor {
	return &Processor{
		intents:   intents,
		matcher:   matcher,
		generator: generator,
		catalog:   catalog,
		narrator:  narrator,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Process handles one user turn. It never returns an error: every failure
// path resolves to a result envelope whose Content explains what happened.
func (p *Processor) Process(ctx context.Context, userQuery string, filters *model.FilterSet, onStatus StatusFunc) *model.Result {
	status := func(msg string) {
		if onStatus != nil {
			onStatus(msg)
		}
	}

	result := &model.Result{Corrections: []model.Correction{}}

	status("🔍 Analyzing your question...")
	intent := p.intents.Parse(ctx, userQuery)
	if intent.Err != "" {
		p.log.Warn().Str("reason", intent.Err).Msg("intent stage failed, short-circuiting")
		result.Content = msgIntentFailed
		return result
	}

	correctedQuery, corrections, companyMap := p.applyCorrections(ctx, userQuery, intent.Entities)
	result.Corrections = corrections
	if len(corrections) > 0 {
		status(fmt.Sprintf("✅ Corrected %d name(s)", len(corrections)))
	}

	if filters != nil {
		for _, fc := range filters.Constraints() {
			intent.MergeConstraint(fc)
		}
	}
	intent.Normalize()
	p.snapModelNames(ctx, intent)

	result.Task = intent.Task
	correctedModels := p.correctedModels(ctx, intent.Entities, companyMap)

	switch {
	case intent.Task == model.TaskGeneralQA:
		status("💡 Preparing explanation...")
	case len(correctedModels) > 0:
		status(fmt.Sprintf("📱 Found %d phone(s) to compare", len(correctedModels)))
	default:
		status("🔎 Searching database...")
	}

	switch intent.Task {
	case model.TaskGeneralQA:
		status("✨ Generating detailed explanation...")
		content, err := p.narrator.AnswerGeneral(ctx, correctedQuery)
		if err != nil {
			p.log.Error().Err(err).Msg("general answer failed")
			result.Content = msgIntentFailed
			return result
		}
		result.Content = content

	case model.TaskQuery:
		status("🗄️ Searching our phone database...")
		if len(correctedModels) > 1 {
			p.processMultiModel(ctx, correctedQuery, correctedModels, result, status)
		} else {
			p.processSingleQuery(ctx, correctedQuery, intent, result, status)
		}

	case model.TaskRefusal:
		reason := intent.RefusalReason
		if reason == "" {
			reason = msgRefusal
		}
		result.Content = fmt.Sprintf("🚫 **I can't help with that request.** %s", reason)

	default:
		result.Content = msgUnknownTask
	}

	return result
}

// applyCorrections snaps entity mentions to canonical catalog names and
// rewrites them inside the query text. Returns the rewritten query, the
// corrections that actually changed something, and the lowercase-original to
// canonical company map used for model attribution.
func (p *Processor) applyCorrections(ctx context.Context, query string, entities model.Entities) (string, []model.Correction, map[string]string) {
	corrections := []model.Correction{}
	companyMap := map[string]string{}
	corrected := query

	for _, company := range entities.Companies {
		match, ok := p.matcher.FindSimilar(ctx, company, repository.VectorTypeCompany, "")
		if !ok {
			continue
		}
		companyMap[strings.ToLower(company)] = match
		if !strings.EqualFold(match, company) {
			corrections = append(corrections, model.Correction{
				Kind: model.CorrectionCompany, Original: company, Corrected: match,
			})
			corrected = replaceMention(corrected, company, match)
		}
	}

	for _, m := range entities.Models {
		match, ok := p.matcher.FindSimilar(ctx, m, repository.VectorTypeModel, detectModelCompany(m, companyMap))
		if ok && !strings.EqualFold(match, m) {
			corrections = append(corrections, model.Correction{
				Kind: model.CorrectionModel, Original: m, Corrected: match,
			})
			corrected = replaceMention(corrected, m, match)
		}
	}

	return corrected, corrections, companyMap
}

// detectModelCompany attributes a model mention to a known company: first by
// substring of either the raw or canonical company name, then falling back
// to the sole resolved company when there is exactly one.
func detectModelCompany(modelMention string, companyMap map[string]string) string {
	lower := strings.ToLower(modelMention)
	for orig, canonical := range companyMap {
		if strings.Contains(lower, orig) || strings.Contains(lower, strings.ToLower(canonical)) {
			return canonical
		}
	}
	if len(companyMap) == 1 {
		for _, canonical := range companyMap {
			return canonical
		}
	}
	return ""
}

// replaceMention rewrites every case-insensitive occurrence of mention in
// text with canonical.
func replaceMention(text, mention, canonical string) string {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(mention))
	if err != nil {
		return text
	}
	return re.ReplaceAllLiteralString(text, canonical)
}

// snapModelNames rewrites model-name constraint values to exact catalog
// spellings so equality comparisons hit.
func (p *Processor) snapModelNames(ctx context.Context, intent *model.Intent) {
	for i, c := range intent.Constraints {
		if c.Column != model.ColModel {
			continue
		}
		v, ok := c.Value.(string)
		if !ok {
			continue
		}
		if match, ok := p.matcher.FindSimilar(ctx, v, repository.VectorTypeModel, ""); ok {
			intent.Constraints[i].Value = match
		}
	}
}

// correctedModels resolves each raw model mention to its canonical name,
// keeping the raw text when no match clears the threshold.
func (p *Processor) correctedModels(ctx context.Context, entities model.Entities, companyMap map[string]string) []string {
	var out []string
	for _, m := range entities.Models {
		match, ok := p.matcher.FindSimilar(ctx, m, repository.VectorTypeModel, detectModelCompany(m, companyMap))
		if ok {
			out = append(out, match)
		} else {
			out = append(out, m)
		}
	}
	return out
}

// processMultiModel fans out one query per named model and merges the rows.
// A model whose lookup fails is reported through status and skipped; the
// turn only fails when every model misses.
func (p *Processor) processMultiModel(ctx context.Context, query string, models []string, result *model.Result, status StatusFunc) {
	var merged []model.Row
	sqls := make([]string, 0, len(models))

	for _, name := range models {
		single := &model.Intent{
			Task: model.TaskQuery,
			Constraints: []model.Constraint{
				{Column: model.ColModel, Operator: model.OpEq, Value: name},
			},
		}
		single.Normalize()

		sql, err := p.generator.Generate(ctx, single)
		sqls = append(sqls, fmt.Sprintf("-- %s\n%s", name, sql))
		if err != nil {
			p.log.Warn().Err(err).Str("model", name).Msg("per-model SQL generation failed")
			status(fmt.Sprintf("⚠️ Couldn't find data for %s", name))
			continue
		}

		rows, err := p.catalog.Query(ctx, sql)
		if err != nil {
			p.log.Warn().Err(err).Str("model", name).Msg("per-model lookup failed")
			status(fmt.Sprintf("⚠️ Couldn't find data for %s", name))
			continue
		}
		if len(rows) > 0 {
			merged = append(merged, rows...)
			status(fmt.Sprintf("✅ Found: %s", name))
		}
	}

	result.SQL = strings.Join(sqls, "\n\n")

	if len(merged) == 0 {
		result.Content = msgModelsMissed
		return
	}

	merged = model.DedupeRows(merged)
	result.Results = merged
	status(fmt.Sprintf("✅ Found %d phone(s)", len(merged)))

	status("📝 Creating detailed comparison...")
	content, err := p.narrator.Summarize(ctx, query, merged)
	if err != nil {
		p.log.Error().Err(err).Msg("summary failed")
		result.Content = msgSummaryDown
		return
	}
	result.Content = content
}

// processSingleQuery handles the zero-or-one named model path.
func (p *Processor) processSingleQuery(ctx context.Context, query string, intent *model.Intent, result *model.Result, status StatusFunc) {
	sql, err := p.generator.Generate(ctx, intent)
	result.SQL = sql
	if err != nil {
		if err == ErrNotSelect {
			result.Content = msgBadSQL
			return
		}
		p.log.Error().Err(err).Msg("SQL generation failed")
		result.Content = msgIntentFailed
		return
	}

	rows, err := p.catalog.Query(ctx, sql)
	if err != nil {
		p.log.Error().Err(err).Str("sql", sql).Msg("catalog query failed")
		result.Content = msgQueryFailed
		return
	}
	result.Results = rows

	if len(rows) == 0 {
		result.Content = msgNoResults
		return
	}
	status(fmt.Sprintf("✅ Found %d phone(s)", len(rows)))

	status("📝 Creating detailed comparison...")
	content, err := p.narrator.Summarize(ctx, query, rows)
	if err != nil {
		p.log.Error().Err(err).Msg("summary failed")
		result.Content = msgSummaryDown
		return
	}
	result.Content = content
}
