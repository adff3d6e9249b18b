package entity

import "time"

// PageUnknown marks a retrieved chunk without page metadata.
const PageUnknown = -1

// RetrievedChunk is a document fragment returned by the retriever.
type RetrievedChunk struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
	Page     int    `json:"page"`
}

// Exchange is the result of one resolved question.
type Exchange struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Sources  []RetrievedChunk `json:"sources,omitempty"`
	Cached   bool             `json:"cached"`
	Elapsed  time.Duration    `json:"-"`
}
