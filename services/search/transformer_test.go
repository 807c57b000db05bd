package search

import (
	"testing"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTransformer_KeywordRow(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())

	row := &models.KeywordRow{RawArticle: models.RawArticle{
		ID:            "a-6",
		Title:         "Lawfulness of processing",
		ArticleNumber: "6",
		Regulation:    []models.RawRegulation{{ID: "reg-1", Name: "GDPR"}, {ID: "reg-2", Name: "Other"}},
		Chapter:       []models.RawChapter{{ChapterNumber: "II", Title: "Principles"}},
		Paragraphs: []models.RawParagraph{{
			ParagraphNumber: "1",
			Content:         "Processing shall be lawful",
			Matches:         []models.Match{{Start: 0, End: 10, Term: "processing"}},
			Elements: []models.RawElement{
				{Type: "chapeau", Content: "Processing shall be lawful only if", Matches: []models.Match{{Start: 0, End: 10, Term: "processing"}}, OrderIndex: intPtr(0)},
				{Content: "the data subject has given consent", ElementID: "a", OrderIndex: intPtr(1)},
			},
		}},
	}}

	results, err := transformer.Transform([]models.RawRow{row}, models.SearchTypeKeyword)
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, "a-6", result.ID)
	assert.Equal(t, "6", result.Metadata.ArticleNumber)
	assert.Equal(t, "reg-1", result.Metadata.RegulationID)
	assert.Equal(t, "GDPR", result.Metadata.RegulationName)
	assert.Equal(t, "II", result.Metadata.ChapterNumber)
	assert.Equal(t, "Principles", result.Metadata.ChapterTitle)
	assert.Equal(t, models.SearchTypeKeyword, result.Metadata.SearchType)
	assert.Nil(t, result.Metadata.SimilarityPercentage)

	require.Len(t, result.Paragraphs, 1)
	p := result.Paragraphs[0]
	assert.Equal(t, "1", p.Number)
	assert.Empty(t, p.Matches)
	assert.Nil(t, p.IsAboveThreshold)
	require.Len(t, p.Elements, 2)
	assert.Equal(t, models.ElementTypeChapeau, p.Elements[0].Type)
	assert.Len(t, p.Elements[0].Matches, 1)
	assert.Equal(t, models.ElementTypeSubparagraph, p.Elements[1].Type)
	assert.Equal(t, "a", p.Elements[1].Letter)
	assert.Equal(t, 1, p.Elements[1].OrderIndex)
	assert.True(t, p.HasMatches())
}

func TestTransformer_MetadataFallbacks(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())

	row := &models.PlainRow{RawArticle: models.RawArticle{
		ID:            "a-1",
		ArticleNumber: "1",
		Metadata:      &models.RawMetadata{ArticleNumber: "1a", RegulationID: "meta-reg"},
		Regulation:    []models.RawRegulation{{ID: "reg-1", Name: "GDPR"}},
		DebugInfo:     &models.DebugInfo{SearchType: models.SearchTypeArticle},
		Paragraphs:    []models.RawParagraph{{Number: "1", Elements: []models.RawElement{{Content: "x"}}}},
	}}

	results, err := transformer.Transform([]models.RawRow{row}, models.SearchTypeSemantic)
	require.NoError(t, err)

	meta := results[0].Metadata
	assert.Equal(t, "1a", meta.ArticleNumber)
	assert.Equal(t, "meta-reg", meta.RegulationID)
	assert.Equal(t, models.SearchTypeArticle, meta.SearchType)
	assert.Equal(t, 0, results[0].Paragraphs[0].Elements[0].OrderIndex)
}

func TestTransformer_SimilarityThresholdFlag(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())

	tests := []struct {
		name      string
		pct       *float64
		provided  *bool
		threshold *float64
		want      bool
	}{
		{name: "equal to threshold is above", pct: floatPtr(60), threshold: floatPtr(0.6), want: true},
		{name: "below threshold", pct: floatPtr(59.99), threshold: floatPtr(0.6), want: false},
		{name: "provider flag wins", pct: floatPtr(95), provided: boolPtr(false), threshold: floatPtr(0.6), want: false},
		{name: "unknown threshold", pct: floatPtr(95), want: false},
		{name: "unknown percentage", threshold: floatPtr(0.6), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := &models.SimilarityRow{RawArticle: models.RawArticle{
				ID:         "a",
				DebugInfo:  &models.DebugInfo{Threshold: tt.threshold},
				Paragraphs: []models.RawParagraph{{Number: "1", SimilarityPercentage: tt.pct, IsAboveThreshold: tt.provided}},
			}}

			results, err := transformer.Transform([]models.RawRow{row}, models.SearchTypeSemantic)
			require.NoError(t, err)
			require.NotNil(t, results[0].Paragraphs[0].IsAboveThreshold)
			assert.Equal(t, tt.want, *results[0].Paragraphs[0].IsAboveThreshold)
		})
	}
}

func TestTransformer_ThresholdMonotonicity(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())
	pcts := []float64{10, 45.5, 59.9, 60, 61, 75, 99}

	above := func(threshold float64) map[string]bool {
		row := similarityRow("x", pcts...)
		row.DebugInfo = &models.DebugInfo{Threshold: floatPtr(threshold)}
		results, err := transformer.Transform([]models.RawRow{row}, models.SearchTypeSemantic)
		require.NoError(t, err)
		set := make(map[string]bool)
		for _, p := range results[0].Paragraphs {
			if p.AboveThreshold() {
				set[p.Number] = true
			}
		}
		return set
	}

	low, high := above(0.5), above(0.7)
	for number := range high {
		assert.True(t, low[number], "paragraph %s above the higher threshold must be above the lower one", number)
	}
	assert.Greater(t, len(low), len(high))
}

func TestTransformer_ResultSimilarity(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())

	derived := &models.SimilarityRow{RawArticle: models.RawArticle{ID: "a"}, Similarity: floatPtr(0.87654)}
	provided := &models.SimilarityRow{RawArticle: models.RawArticle{ID: "b"}, Similarity: floatPtr(0.5), SimilarityPercentage: floatPtr(91.2)}
	none := &models.SimilarityRow{RawArticle: models.RawArticle{ID: "c"}}

	results, err := transformer.Transform([]models.RawRow{derived, provided, none}, models.SearchTypeSemantic)
	require.NoError(t, err)

	require.NotNil(t, results[0].Metadata.SimilarityPercentage)
	assert.Equal(t, 87.65, *results[0].Metadata.SimilarityPercentage)
	assert.Equal(t, 91.2, *results[1].Metadata.SimilarityPercentage)
	assert.Nil(t, results[2].Metadata.SimilarityPercentage)
	assert.Equal(t, "", results[2].Content)
	assert.NotNil(t, results[2].Paragraphs)
}

func TestTransformer_MalformedRow(t *testing.T) {
	transformer := NewTransformer(zap.NewNop())

	var nilRow *models.KeywordRow
	results, err := transformer.Transform([]models.RawRow{nilRow}, models.SearchTypeKeyword)

	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, services.IsTransformError(err))

	_, err = transformer.Transform([]models.RawRow{nil}, models.SearchTypeKeyword)
	assert.True(t, services.IsTransformError(err))
}

func TestTransformer_EmptyInput(t *testing.T) {
	results, err := NewTransformer(zap.NewNop()).Transform(nil, models.SearchTypeKeyword)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func numbers(paragraphs []models.SearchResultParagraph) []string {
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = p.Number
	}
	return out
}

func paragraphsOf(nums ...string) []models.SearchResultParagraph {
	out := make([]models.SearchResultParagraph, len(nums))
	for i, n := range nums {
		out[i] = models.SearchResultParagraph{Number: n, Content: n}
	}
	return out
}

func TestSortParagraphs(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "integers compare numerically", input: []string{"10", "2", "1"}, want: []string{"1", "2", "10"}},
		{name: "surrounding whitespace ignored", input: []string{" 3", "12 ", "1"}, want: []string{"1", " 3", "12 "}},
		{name: "natural order for mixed", input: []string{"2a", "10", "2", "1b"}, want: []string{"1b", "2", "2a", "10"}},
		{name: "letters", input: []string{"b", "a", "c"}, want: []string{"a", "b", "c"}},
		{name: "empty", input: []string{}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paragraphs := paragraphsOf(tt.input...)
			SortParagraphs(paragraphs)
			assert.Equal(t, tt.want, numbers(paragraphs))
		})
	}
}

func TestSortParagraphs_StableAndIdempotent(t *testing.T) {
	paragraphs := []models.SearchResultParagraph{
		{Number: "2", Content: "first 2"},
		{Number: "1", Content: "one"},
		{Number: "2", Content: "second 2"},
	}

	SortParagraphs(paragraphs)
	assert.Equal(t, "first 2", paragraphs[1].Content)
	assert.Equal(t, "second 2", paragraphs[2].Content)

	once := append([]models.SearchResultParagraph(nil), paragraphs...)
	SortParagraphs(paragraphs)
	assert.Equal(t, once, paragraphs)
}
