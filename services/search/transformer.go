package search

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

var numericParagraph = regexp.MustCompile(`^\d+$`)

// Transformer normalizes raw provider rows into SearchResults
type Transformer struct {
	logger *zap.Logger
}

// NewTransformer creates a new Transformer
func NewTransformer(logger *zap.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform normalizes rows. searchType is recorded on results whose row carries no debug info.
// Any failure, including a panic on a malformed row, is reported as a transform error.
func (t *Transformer) Transform(rows []models.RawRow, searchType models.SearchType) (results []models.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = services.NewDomainError(services.ErrorTypeTransform, "Error transforming search results",
				fmt.Errorf("malformed row: %v", r))
		}
	}()

	t.logger.Debug("transforming search results",
		zap.Int("count", len(rows)),
		zap.String("search_type", string(searchType)),
	)

	results = make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		var result models.SearchResult
		switch r := row.(type) {
		case *models.KeywordRow:
			result = t.fromKeywordRow(r, searchType)
		case *models.SimilarityRow:
			result = t.fromSimilarityRow(r, searchType)
		case *models.PlainRow:
			result = t.fromArticle(r.Article(), searchType, transformParagraphs(r.Paragraphs, threshold(r.DebugInfo)))
		default:
			return nil, services.NewDomainError(services.ErrorTypeTransform, "Error transforming search results",
				fmt.Errorf("unsupported row type %T", row))
		}
		results = append(results, result)
	}

	return results, nil
}

func (t *Transformer) fromKeywordRow(r *models.KeywordRow, searchType models.SearchType) models.SearchResult {
	return t.fromArticle(r.Article(), searchType, transformParagraphsWithMatches(r.Paragraphs))
}

func (t *Transformer) fromSimilarityRow(r *models.SimilarityRow, searchType models.SearchType) models.SearchResult {
	result := t.fromArticle(r.Article(), searchType, transformParagraphs(r.Paragraphs, threshold(r.DebugInfo)))
	result.Metadata.SimilarityPercentage = resultSimilarity(r.SimilarityPercentage, r.Similarity)
	return result
}

func (t *Transformer) fromArticle(a *models.RawArticle, searchType models.SearchType, paragraphs []models.SearchResultParagraph) models.SearchResult {
	meta := models.SearchResultMetadata{
		ArticleNumber: a.ArticleNumber,
		SearchType:    searchType,
	}
	var metaRegulationID, regulationID string
	if a.Metadata != nil {
		if a.Metadata.ArticleNumber != "" {
			meta.ArticleNumber = a.Metadata.ArticleNumber
		}
		metaRegulationID = a.Metadata.RegulationID
	}
	if len(a.Regulation) > 0 {
		regulationID = a.Regulation[0].ID
		meta.RegulationName = a.Regulation[0].Name
	}
	meta.RegulationID = firstNonEmpty(metaRegulationID, regulationID, a.RegulationID)
	if len(a.Chapter) > 0 {
		meta.ChapterNumber = a.Chapter[0].ChapterNumber
		meta.ChapterTitle = a.Chapter[0].Title
	}
	if a.DebugInfo != nil && a.DebugInfo.SearchType != "" {
		meta.SearchType = a.DebugInfo.SearchType
	}

	SortParagraphs(paragraphs)

	return models.SearchResult{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Metadata:   meta,
		Paragraphs: paragraphs,
		DebugInfo:  a.DebugInfo,
	}
}

// transformParagraphsWithMatches keeps element-level keyword matches.
// Paragraph-level matches are always empty for keyword results.
func transformParagraphsWithMatches(raw []models.RawParagraph) []models.SearchResultParagraph {
	paragraphs := make([]models.SearchResultParagraph, 0, len(raw))
	for _, p := range raw {
		paragraphs = append(paragraphs, models.SearchResultParagraph{
			Number:   paragraphNumber(p),
			Content:  p.Content,
			Matches:  []models.Match{},
			Elements: transformElements(p.Elements, false),
		})
	}
	return paragraphs
}

// transformParagraphs carries similarity scores and derives the threshold flag when the provider did not.
func transformParagraphs(raw []models.RawParagraph, threshold *float64) []models.SearchResultParagraph {
	paragraphs := make([]models.SearchResultParagraph, 0, len(raw))
	for _, p := range raw {
		above := false
		switch {
		case p.IsAboveThreshold != nil:
			above = *p.IsAboveThreshold
		case p.SimilarityPercentage != nil && threshold != nil:
			above = *p.SimilarityPercentage >= *threshold*100
		}
		matches := p.Matches
		if matches == nil {
			matches = []models.Match{}
		}
		paragraphs = append(paragraphs, models.SearchResultParagraph{
			Number:               paragraphNumber(p),
			Content:              p.Content,
			Matches:              matches,
			Elements:             transformElements(p.Elements, true),
			SimilarityPercentage: p.SimilarityPercentage,
			IsAboveThreshold:     &above,
		})
	}
	return paragraphs
}

func transformElements(raw []models.RawElement, withSimilarity bool) []models.ParagraphElement {
	elements := make([]models.ParagraphElement, 0, len(raw))
	for _, e := range raw {
		el := models.ParagraphElement{
			Type:    models.ElementType(e.Type),
			Content: e.Content,
			Letter:  e.Letter,
			Matches: e.Matches,
		}
		if el.Type == "" {
			el.Type = models.ElementTypeSubparagraph
		}
		if el.Letter == "" {
			el.Letter = e.ElementID
		}
		if el.Matches == nil {
			el.Matches = []models.Match{}
		}
		if e.OrderIndex != nil {
			el.OrderIndex = *e.OrderIndex
		}
		if withSimilarity {
			el.SimilarityPercentage = e.SimilarityPercentage
		}
		elements = append(elements, el)
	}
	return elements
}

func paragraphNumber(p models.RawParagraph) string {
	if p.Number != "" {
		return p.Number
	}
	return p.ParagraphNumber
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func threshold(info *models.DebugInfo) *float64 {
	if info == nil {
		return nil
	}
	return info.Threshold
}

// resultSimilarity prefers the provider percentage and otherwise derives it from the raw similarity, rounded to 2 decimals
func resultSimilarity(percentage, similarity *float64) *float64 {
	if percentage != nil && *percentage != 0 {
		return percentage
	}
	if similarity != nil && *similarity != 0 {
		pct := math.Round(*similarity*100*100) / 100
		return &pct
	}
	return nil
}

// SortParagraphs orders paragraphs by number in place. Purely numeric numbers
// compare as integers, anything else uses a numeric-aware natural order.
// The sort is stable and idempotent.
func SortParagraphs(paragraphs []models.SearchResultParagraph) {
	sort.SliceStable(paragraphs, func(i, j int) bool {
		return compareParagraphNumbers(paragraphs[i].Number, paragraphs[j].Number) < 0
	})
}

func compareParagraphNumbers(a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if numericParagraph.MatchString(a) && numericParagraph.MatchString(b) {
		ai, errA := strconv.Atoi(a)
		bi, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	}
	return naturalCompare(a, b)
}

// naturalCompare compares strings chunk by chunk, treating runs of digits as numbers
func naturalCompare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigitRuns(string(ra[si:i]), string(rb[sj:j])); c != 0 {
				return c
			}
			continue
		}
		ca, cb := unicode.ToLower(ra[i]), unicode.ToLower(rb[j])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	}
	return strings.Compare(a, b)
}

func compareDigitRuns(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
