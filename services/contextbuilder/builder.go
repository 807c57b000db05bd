package contextbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/at-fk/finalproject/models"
	"go.uber.org/zap"
)

// maxParagraphContexts caps BuildFromParagraphs regardless of the requested count
const maxParagraphContexts = 10

// Builder assembles answer-generation contexts from search results
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// BuildFromResults produces one context per result from the article content
func (b *Builder) BuildFromResults(results []models.SearchResult) []models.Context {
	contexts := make([]models.Context, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, models.Context{
			Content:  r.Content,
			Metadata: metadataFor(r, ""),
		})
	}
	return contexts
}

type scoredContext struct {
	context    models.Context
	similarity float64
}

// BuildFromParagraphs flattens the paragraphs of all results, keeps those relevant
// to how each result was produced, and returns at most min(maxContexts, 10) contexts
// ordered by similarity. maxContexts <= 0 means the default of 5.
func (b *Builder) BuildFromParagraphs(results []models.SearchResult, maxContexts int) []models.Context {
	if maxContexts <= 0 {
		maxContexts = models.DefaultMaxContexts
	}
	limit := maxContexts
	if limit > maxParagraphContexts {
		limit = maxParagraphContexts
	}

	candidates := make([]scoredContext, 0)
	for _, r := range results {
		include := paragraphFilter(r)
		for _, p := range r.Paragraphs {
			if !include(p) {
				continue
			}
			candidates = append(candidates, scoredContext{
				context: models.Context{
					Content:  joinElements(p),
					Metadata: metadataFor(r, p.Number),
				},
				similarity: similarityOf(p),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	contexts := make([]models.Context, 0, len(candidates))
	for _, c := range candidates {
		contexts = append(contexts, c.context)
	}

	b.logger.Debug("built paragraph contexts",
		zap.Int("results", len(results)),
		zap.Int("contexts", len(contexts)),
		zap.Int("max_contexts", maxContexts),
	)

	return contexts
}

// paragraphFilter selects paragraphs by the origin of the result:
// semantic paragraph-level results need a similarity strictly above the threshold,
// keyword results need a match, anything else is kept only for article-level searches.
func paragraphFilter(r models.SearchResult) func(models.SearchResultParagraph) bool {
	var level models.SearchLevel
	threshold := models.DefaultSimilarityThreshold
	if r.DebugInfo != nil {
		level = r.DebugInfo.SearchLevel
		if r.DebugInfo.Threshold != nil {
			threshold = *r.DebugInfo.Threshold
		}
	}

	switch origin := r.Origin(); {
	case origin == models.SearchTypeSemantic && level == models.SearchLevelParagraph:
		return func(p models.SearchResultParagraph) bool {
			return similarityOf(p) > threshold*100
		}
	case origin == models.SearchTypeKeyword:
		return models.SearchResultParagraph.HasMatches
	default:
		articleLevel := level == models.SearchLevelArticle
		return func(models.SearchResultParagraph) bool { return articleLevel }
	}
}

// Serialize renders contexts as
// "\nArticle N of REG (Paragraph P):\ncontent\n" items joined by a newline.
func (b *Builder) Serialize(contexts []models.Context) string {
	items := make([]string, 0, len(contexts))
	for _, c := range contexts {
		paragraph := ""
		if c.Metadata.ParagraphNumber != "" {
			paragraph = fmt.Sprintf(" (Paragraph %s)", c.Metadata.ParagraphNumber)
		}
		items = append(items, fmt.Sprintf("\nArticle %s of %s%s:\n%s\n",
			c.Metadata.ArticleNumber, c.Metadata.RegulationName, paragraph, c.Content))
	}
	return strings.Join(items, "\n")
}

func metadataFor(r models.SearchResult, paragraphNumber string) models.ContextMetadata {
	return models.ContextMetadata{
		RegulationID:    r.Metadata.RegulationID,
		RegulationName:  r.Metadata.RegulationName,
		ArticleNumber:   r.Metadata.ArticleNumber,
		Title:           r.Title,
		ParagraphNumber: paragraphNumber,
	}
}

func joinElements(p models.SearchResultParagraph) string {
	parts := make([]string, 0, len(p.Elements))
	for _, e := range p.Elements {
		parts = append(parts, e.Content)
	}
	return strings.Join(parts, "\n")
}

func similarityOf(p models.SearchResultParagraph) float64 {
	if p.SimilarityPercentage == nil {
		return 0
	}
	return *p.SimilarityPercentage
}
