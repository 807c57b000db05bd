package models

// SearchType identifies how a result was produced
type SearchType string

const (
	SearchTypeKeyword  SearchType = "keyword"
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeArticle  SearchType = "article"
	SearchTypeCombined SearchType = "combined"
)

// SearchLevel is the granularity at which similarity was computed
type SearchLevel string

const (
	SearchLevelArticle   SearchLevel = "article"
	SearchLevelParagraph SearchLevel = "paragraph"
)

// ElementType distinguishes the lead-in text of a paragraph from its subparagraphs
type ElementType string

const (
	ElementTypeChapeau      ElementType = "chapeau"
	ElementTypeSubparagraph ElementType = "subparagraph"
)

// Default search parameters
const (
	DefaultPage                = 1
	DefaultPageSize            = 10
	DefaultSimilarityThreshold = 0.6
	DefaultMaxContexts         = 5
	MaxContextsLimit           = 30
)

// Match is a keyword hit inside a piece of text, as character offsets
type Match struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Term  string `json:"term"`
}

// ParagraphElement is a chapeau or subparagraph of a search result paragraph
type ParagraphElement struct {
	Type                 ElementType `json:"type"`
	Content              string      `json:"content"`
	Letter               string      `json:"letter,omitempty"`
	Matches              []Match     `json:"matches,omitempty"`
	OrderIndex           int         `json:"order_index"`
	SimilarityPercentage *float64    `json:"similarity_percentage,omitempty"`
}

// SearchResultParagraph is a paragraph of a search result.
// IsAboveThreshold is nil for keyword results.
type SearchResultParagraph struct {
	Number               string             `json:"number"`
	Content              string             `json:"content"`
	Matches              []Match            `json:"matches"`
	Elements             []ParagraphElement `json:"elements"`
	SimilarityPercentage *float64           `json:"similarity_percentage,omitempty"`
	IsAboveThreshold     *bool              `json:"is_above_threshold,omitempty"`
}

// AboveThreshold reports whether the paragraph was flagged as above the similarity threshold
func (p SearchResultParagraph) AboveThreshold() bool {
	return p.IsAboveThreshold != nil && *p.IsAboveThreshold
}

// HasMatches reports whether the paragraph or any of its elements carries a keyword match
func (p SearchResultParagraph) HasMatches() bool {
	if len(p.Matches) > 0 {
		return true
	}
	for _, el := range p.Elements {
		if len(el.Matches) > 0 {
			return true
		}
	}
	return false
}

// SearchResultMetadata describes the article a result came from
type SearchResultMetadata struct {
	ArticleNumber        string     `json:"article_number"`
	RegulationID         string     `json:"regulation_id"`
	RegulationName       string     `json:"regulation_name"`
	ChapterNumber        string     `json:"chapter_number,omitempty"`
	ChapterTitle         string     `json:"chapter_title,omitempty"`
	SimilarityPercentage *float64   `json:"similarity_percentage,omitempty"`
	SearchType           SearchType `json:"search_type"`
}

// DebugInfo records how a semantic result was produced
type DebugInfo struct {
	SearchType  SearchType  `json:"search_type"`
	SearchLevel SearchLevel `json:"search_level,omitempty"`
	Threshold   *float64    `json:"threshold,omitempty"`
}

// SearchResult is the unified result of any search mode. It is never persisted.
type SearchResult struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Content    string                  `json:"content"`
	Metadata   SearchResultMetadata    `json:"metadata"`
	Paragraphs []SearchResultParagraph `json:"paragraphs"`
	DebugInfo  *DebugInfo              `json:"debug_info,omitempty"`
}

// Origin returns the search type recorded in debug info, falling back to the metadata
func (r SearchResult) Origin() SearchType {
	if r.DebugInfo != nil && r.DebugInfo.SearchType != "" {
		return r.DebugInfo.SearchType
	}
	return r.Metadata.SearchType
}

// SearchParams is the request model of every search mode
type SearchParams struct {
	Type                SearchType  `json:"type,omitempty" validate:"omitempty,oneof=keyword semantic article combined"`
	Keyword             string      `json:"keyword,omitempty"`
	SemanticQuery       string      `json:"semanticQuery,omitempty"`
	RegulationID        string      `json:"regulation_id,omitempty"`
	StartArticle        string      `json:"startArticle,omitempty"`
	EndArticle          string      `json:"endArticle,omitempty"`
	SimilarityThreshold *float64    `json:"similarityThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	SearchLevel         SearchLevel `json:"searchLevel,omitempty" validate:"omitempty,oneof=article paragraph"`
	MaxContexts         int         `json:"maxContexts,omitempty" validate:"omitempty,gte=0,lte=30"`
	Page                int         `json:"page,omitempty" validate:"omitempty,gte=0"`
	PageSize            int         `json:"pageSize,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Threshold returns the similarity threshold or the default
func (p SearchParams) Threshold() float64 {
	if p.SimilarityThreshold != nil {
		return *p.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

// PageOrDefault returns the requested page or 1
func (p SearchParams) PageOrDefault() int {
	if p.Page > 0 {
		return p.Page
	}
	return DefaultPage
}

// PageSizeOrDefault returns the requested page size or 10
func (p SearchParams) PageSizeOrDefault() int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return DefaultPageSize
}

// SearchResponse is the envelope returned by all search services
type SearchResponse struct {
	Results  []SearchResult `json:"results"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
