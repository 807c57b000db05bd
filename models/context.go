package models

// ContextMetadata locates a context within the regulation hierarchy
type ContextMetadata struct {
	RegulationID    string `json:"regulation_id"`
	RegulationName  string `json:"regulation_name"`
	ArticleNumber   string `json:"article_number"`
	Title           string `json:"title"`
	ParagraphNumber string `json:"paragraph_number,omitempty"`
}

// Context is one unit of evidence handed to answer generation
type Context struct {
	Content  string          `json:"content"`
	Metadata ContextMetadata `json:"metadata"`
}

// Language selects the answer prompt
type Language string

const (
	LanguageJapanese Language = "ja"
	LanguageEnglish  Language = "en"
)

// SelectedParagraph is a paragraph picked by the user in the UI
type SelectedParagraph struct {
	Number  string `json:"number"`
	Content string `json:"content"`
}

// SelectedContent is an article together with the paragraphs the user picked from it
type SelectedContent struct {
	ArticleNumber  string              `json:"article_number"`
	RegulationName string              `json:"regulation_name"`
	Title          string              `json:"title"`
	Paragraphs     []SelectedParagraph `json:"paragraphs"`
}

// QAPair is the previous question and answer of a conversation
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskRequest asks a question about contents selected by the user
type AskRequest struct {
	Query            string            `json:"query" validate:"required"`
	SelectedContents []SelectedContent `json:"selectedContents"`
	Language         Language          `json:"language,omitempty" validate:"omitempty,oneof=ja en"`
}

// SemanticAskParams are the retrieval parameters of a semantic ask
type SemanticAskParams struct {
	RegulationID        string   `json:"regulation_id"`
	SimilarityThreshold *float64 `json:"similarityThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxContexts         int      `json:"maxContexts,omitempty" validate:"omitempty,gte=0"`
}

// SemanticAskRequest asks a question answered from semantically retrieved paragraphs
type SemanticAskRequest struct {
	Query        string            `json:"query" validate:"required"`
	SearchParams SemanticAskParams `json:"searchParams"`
	Language     Language          `json:"language,omitempty" validate:"omitempty,oneof=ja en"`
	LastQA       *QAPair           `json:"lastQA,omitempty"`
}

// EmbeddingRequest asks for the embedding of a text
type EmbeddingRequest struct {
	Text string `json:"text"`
}
