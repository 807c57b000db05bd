package models

// RawRow is a row as returned by the storage provider before normalization.
// The concrete type tells the transformer which normalization applies.
type RawRow interface {
	Article() *RawArticle
	rawRow()
}

// RawRegulation is the embedded regulation of a raw row
type RawRegulation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawChapter is the embedded chapter of a raw row
type RawChapter struct {
	ChapterNumber string `json:"chapter_number"`
	Title         string `json:"title"`
}

// RawMetadata is the optional metadata block some providers attach
type RawMetadata struct {
	ArticleNumber string `json:"article_number"`
	RegulationID  string `json:"regulation_id"`
}

// RawElement is a chapeau or subparagraph as stored
type RawElement struct {
	Type                 string   `json:"type"`
	Content              string   `json:"content"`
	Letter               string   `json:"letter"`
	ElementID            string   `json:"element_id"`
	OrderIndex           *int     `json:"order_index"`
	Matches              []Match  `json:"matches"`
	SimilarityPercentage *float64 `json:"similarity_percentage"`
}

// RawParagraph is a paragraph as stored
type RawParagraph struct {
	Number               string       `json:"number"`
	ParagraphNumber      string       `json:"paragraph_number"`
	Content              string       `json:"content"`
	Matches              []Match      `json:"matches"`
	Elements             []RawElement `json:"elements"`
	SimilarityPercentage *float64     `json:"similarity_percentage"`
	IsAboveThreshold     *bool        `json:"is_above_threshold"`
}

// RawArticle holds the fields shared by every raw row variant
type RawArticle struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	ArticleNumber string          `json:"article_number"`
	RegulationID  string          `json:"regulation_id"`
	Metadata      *RawMetadata    `json:"metadata"`
	Regulation    []RawRegulation `json:"regulation"`
	Chapter       []RawChapter    `json:"chapter"`
	Paragraphs    []RawParagraph  `json:"paragraphs"`
	DebugInfo     *DebugInfo      `json:"debug_info"`
}

// KeywordRow is a row produced by the keyword search function
type KeywordRow struct {
	RawArticle
}

// Article returns the shared article fields
func (r *KeywordRow) Article() *RawArticle { return &r.RawArticle }
func (*KeywordRow) rawRow()                {}

// SimilarityRow is a row produced by the vector similarity function
type SimilarityRow struct {
	RawArticle
	Similarity           *float64 `json:"similarity"`
	SimilarityPercentage *float64 `json:"similarity_percentage"`
}

// Article returns the shared article fields
func (r *SimilarityRow) Article() *RawArticle { return &r.RawArticle }
func (*SimilarityRow) rawRow()                {}

// PlainRow is a plain article fetch without scoring
type PlainRow struct {
	RawArticle
}

// Article returns the shared article fields
func (r *PlainRow) Article() *RawArticle { return &r.RawArticle }
func (*PlainRow) rawRow()                {}
