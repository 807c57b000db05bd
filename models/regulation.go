package models

import (
	"time"

	"github.com/google/uuid"
)

// Regulation is a top-level legal instrument (e.g. GDPR).
type Regulation struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	OfficialTitle string    `json:"official_title,omitempty" db:"official_title"`
	ShortTitle    string    `json:"short_title,omitempty" db:"short_title"`
	CreatedAt     time.Time `json:"created_at,omitempty" db:"created_at"`
}

// TableName returns the table name for the Regulation model
func (Regulation) TableName() string {
	return "regulations"
}

// Chapter groups sections and articles inside a regulation
type Chapter struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RegulationID  uuid.UUID `json:"regulation_id" db:"regulation_id"`
	ChapterNumber string    `json:"chapter_number" db:"chapter_number"`
	Title         string    `json:"title" db:"title"`
	OrderIndex    int       `json:"order_index" db:"order_index"`
}

// TableName returns the table name for the Chapter model
func (Chapter) TableName() string {
	return "chapters"
}

// Section is an optional grouping of articles below a chapter
type Section struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ChapterID     uuid.UUID `json:"chapter_id" db:"chapter_id"`
	SectionNumber string    `json:"section_number" db:"section_number"`
	Title         string    `json:"title" db:"title"`
	OrderIndex    int       `json:"order_index" db:"order_index"`
}

// TableName returns the table name for the Section model
func (Section) TableName() string {
	return "sections"
}

// Article belongs to exactly one regulation. A non-nil SectionID implies a non-nil ChapterID.
type Article struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	RegulationID  uuid.UUID  `json:"regulation_id" db:"regulation_id"`
	ChapterID     *uuid.UUID `json:"chapter_id,omitempty" db:"chapter_id"`
	SectionID     *uuid.UUID `json:"section_id,omitempty" db:"section_id"`
	ArticleNumber string     `json:"article_number" db:"article_number"`
	Title         string     `json:"title" db:"title"`
	ContentFull   string     `json:"content_full,omitempty" db:"content_full"`
	OrderIndex    int        `json:"order_index" db:"order_index"`
}

// TableName returns the table name for the Article model
func (Article) TableName() string {
	return "articles"
}

// Paragraph is a numbered paragraph of an article
type Paragraph struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	ParagraphNumber string         `json:"paragraph_number" db:"paragraph_number"`
	ContentFull     string         `json:"content_full" db:"content_full"`
	Chapeau         *string        `json:"chapeau" db:"chapeau"`
	Subparagraphs   []Subparagraph `json:"subparagraphs"`
}

// Subparagraph is a lettered point or a plain subparagraph of a paragraph
type Subparagraph struct {
	ID             uuid.UUID `json:"id" db:"id"`
	SubparagraphID string    `json:"subparagraph_id" db:"subparagraph_id"`
	Content        string    `json:"content" db:"content"`
	Type           string    `json:"type" db:"type"`
	OrderIndex     int       `json:"order_index" db:"order_index"`
}

// ReferenceType distinguishes references within the same regulation from references to another one
type ReferenceType string

const (
	ReferenceTypeInternal ReferenceType = "internal"
	ReferenceTypeExternal ReferenceType = "external"
)

// TargetType is the granularity of a reference target
type TargetType string

const (
	TargetTypeArticle   TargetType = "article"
	TargetTypeParagraph TargetType = "paragraph"
	TargetTypePoint     TargetType = "point"
)

// Reference is an immutable cross-reference between two provisions
type Reference struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	SourceType         string        `json:"source_type" db:"source_type"`
	SourceArticle      string        `json:"source_article" db:"source_article"`
	SourceParagraph    *string       `json:"source_paragraph" db:"source_paragraph"`
	SourceSubparagraph *string       `json:"source_subparagraph" db:"source_subparagraph"`
	ReferenceType      ReferenceType `json:"reference_type" db:"reference_type"`
	TargetType         TargetType    `json:"target_type" db:"target_type"`
	TargetRegulation   *string       `json:"target_regulation" db:"target_regulation"`
	TargetArticle      *string       `json:"target_article" db:"target_article"`
	TargetParagraph    *string       `json:"target_paragraph" db:"target_paragraph"`
	TargetSubparagraph *string       `json:"target_subparagraph" db:"target_subparagraph"`
	TargetPoint        *string       `json:"target_point" db:"target_point"`
	Context            *string       `json:"context" db:"context"`
}

// TableName returns the table name for the Reference model
func (Reference) TableName() string {
	return "legal_references"
}

// ArticleDetail is an article with its owning regulation, chapter, paragraphs and references
type ArticleDetail struct {
	Article
	Regulation   *Regulation `json:"regulation"`
	Chapter      *Chapter    `json:"chapter"`
	Paragraphs   []Paragraph `json:"paragraphs"`
	References   []Reference `json:"references"`
	ReferencedBy []Reference `json:"referenced_by"`
}

// ChapterStructure is a chapter with its sections and the articles placed directly under it
type ChapterStructure struct {
	Chapter
	Sections []SectionStructure `json:"sections"`
	Articles []Article          `json:"articles"`
}

// SectionStructure is a section with its articles
type SectionStructure struct {
	Section
	Articles []Article `json:"articles"`
}

// RegulationStructure is the table of contents of a regulation.
// Articles is only populated for regulations that have no chapters.
type RegulationStructure struct {
	Chapters []ChapterStructure `json:"chapters"`
	Articles []Article          `json:"articles,omitempty"`
}
