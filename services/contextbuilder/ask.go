package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

// DefaultAskContexts is the context count of a semantic ask that does not set one
const DefaultAskContexts = 10

// FromSelected renders the paragraphs a user picked into numbered
// "【選択結果i】" blocks separated by a blank line.
func (b *Builder) FromSelected(contents []models.SelectedContent) (string, error) {
	if len(contents) == 0 {
		return "", services.ErrNoContentSelected
	}

	blocks := make([]string, 0, len(contents))
	for i, item := range contents {
		articleNumber := item.ArticleNumber
		if articleNumber == "" {
			articleNumber = "(no-article-number)"
		}
		title := item.Title
		if title == "" {
			title = "(no-title)"
		}

		paragraphs := make([]string, 0, len(item.Paragraphs))
		for _, p := range item.Paragraphs {
			paragraphs = append(paragraphs, fmt.Sprintf("Paragraph %s:\n%s", p.Number, p.Content))
		}

		blocks = append(blocks, joinNonEmpty([]string{
			fmt.Sprintf("【選択結果%d】", i+1),
			item.RegulationName,
			fmt.Sprintf("Article %s: %s", articleNumber, title),
			strings.Join(paragraphs, "\n\n"),
		}, "\n"))
	}

	contextString := strings.Join(blocks, "\n\n")
	if strings.TrimSpace(contextString) == "" {
		return "", services.ErrEmptyContext
	}

	b.logger.Debug("built selected-content context",
		zap.Int("items", len(contents)),
		zap.Int("length", len(contextString)),
	)
	return contextString, nil
}

// FromSemanticResults selects paragraphs with BuildFromParagraphs and renders them
// as numbered "【Context i】" blocks. maxContexts <= 0 means 10.
func (b *Builder) FromSemanticResults(results []models.SearchResult, maxContexts int) (string, error) {
	if len(results) == 0 {
		return "", services.ErrNoRelevantContent
	}

	if maxContexts <= 0 {
		maxContexts = DefaultAskContexts
	}
	contexts := b.BuildFromParagraphs(results, maxContexts)
	if len(contexts) == 0 {
		return "", services.ErrNoContentAboveThreshold
	}

	blocks := make([]string, 0, len(contexts))
	for i, c := range contexts {
		heading := "Article " + c.Metadata.ArticleNumber
		if c.Metadata.Title != "" {
			heading += ": " + c.Metadata.Title
		}
		blocks = append(blocks, joinNonEmpty([]string{
			fmt.Sprintf("【Context %d】", i+1),
			c.Metadata.RegulationName,
			heading,
			fmt.Sprintf("Paragraph %s:\n%s", c.Metadata.ParagraphNumber, c.Content),
		}, "\n"))
	}

	b.logger.Debug("built semantic ask context",
		zap.Int("results", len(results)),
		zap.Int("contexts", len(contexts)),
	)
	return strings.Join(blocks, "\n\n"), nil
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
