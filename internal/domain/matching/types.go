package matching

import (
	"strings"
	"time"
)

// ContentType labels the resume section a sentence came from.
type ContentType string

const (
	ContentWork      ContentType = "work"
	ContentProject   ContentType = "project"
	ContentEducation ContentType = "education"
	ContentSkill     ContentType = "skill"
	ContentAward     ContentType = "award"
	ContentUnknown   ContentType = "unknown"
)

// NoMatchSentence is returned as BestMatch when the user has no indexed resume sentences.
const NoMatchSentence = "No matching resume content found"

// ParseContentType maps loose section labels onto a ContentType.
func ParseContentType(raw string) ContentType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "work", "workexperience", "work_experience", "experience":
		return ContentWork
	case "project", "projects":
		return ContentProject
	case "education":
		return ContentEducation
	case "skill", "skills":
		return ContentSkill
	case "award", "awards":
		return ContentAward
	default:
		return ContentUnknown
	}
}

// SentenceEmbedding is one embedded resume sentence.
type SentenceEmbedding struct {
	Sentence    string      `json:"sentence"`
	Embedding   []float32   `json:"embedding"`
	ContentType ContentType `json:"contentType"`
}

// JDSentenceQuery is one embedded job description sentence.
type JDSentenceQuery struct {
	Sentence  string    `json:"sentence"`
	Embedding []float32 `json:"embedding"`
}

// MatchResult pairs a job description sentence with its closest resume sentence.
type MatchResult struct {
	JDSentence  string      `json:"jdSentence"`
	BestMatch   string      `json:"bestMatch"`
	Similarity  float64     `json:"similarity"`
	ContentType ContentType `json:"contentType"`
}

// Bundle is the stored unit of resume embeddings: the sentences of one resume block and
// their vectors, index aligned.
type Bundle struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ContentType ContentType `json:"contentType"`
	Sentences   []string    `json:"sentences"`
	Embeddings  [][]float32 `json:"embeddings"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ResumeBlock is a piece of resume text awaiting indexing.
type ResumeBlock struct {
	ContentType ContentType `json:"contentType"`
	Text        string      `json:"text"`
}

// JDEmbedding holds the embeddings derived from one job description.
type JDEmbedding struct {
	Hash      string            `json:"hash"`
	Embedding []float32         `json:"embedding"`
	Sentences []JDSentenceQuery `json:"sentences"`
	Cached    bool              `json:"cached"`
}

// ScoreBand buckets the overall resume to job description similarity.
type ScoreBand string

const (
	BandExcellent ScoreBand = "excellent"
	BandGood      ScoreBand = "good"
	BandPartial   ScoreBand = "partial"
	BandLow       ScoreBand = "low"
)

// OverallScore summarizes how close the resume as a whole is to the job description.
type OverallScore struct {
	Similarity      float64   `json:"similarity"`
	Band            ScoreBand `json:"band"`
	Label           string    `json:"label"`
	ResumeSentences int       `json:"resumeSentences"`
}

// Report is the full result of a text match request.
type Report struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	CreatedAt  time.Time     `json:"createdAt"`
	Overall    OverallScore  `json:"overall"`
	Matches    []MatchResult `json:"matches"`
	Highlights []MatchResult `json:"highlights"`
	StorageKey string        `json:"storageKey,omitempty"`
}
