package types

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DemoType is the interaction mode a model listing declares for its live demo.
type DemoType string

const (
	DemoTextToText        DemoType = "text-to-text"
	DemoImageToText       DemoType = "image-to-text"
	DemoTextToImage       DemoType = "text-to-image"
	DemoSentimentAnalysis DemoType = "sentiment-analysis"
	DemoQuestionAnswering DemoType = "question-answering"
)

// DemoTypes lists every recognized demo type in declaration order.
var DemoTypes = []DemoType{
	DemoTextToText,
	DemoImageToText,
	DemoTextToImage,
	DemoSentimentAnalysis,
	DemoQuestionAnswering,
}

// Valid reports whether t is one of the recognized demo types.
func (t DemoType) Valid() bool {
	for _, v := range DemoTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (t DemoType) String() string { return string(t) }

// ParseDemoType normalizes s and returns the matching demo type.
func ParseDemoType(s string) (DemoType, error) {
	t := DemoType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return t, errors.New("unknown demo type: " + s)
	}
	return t, nil
}

// OutputKind tells a renderer how DemoResult.Output must be interpreted.
type OutputKind string

const (
	OutputText           OutputKind = "text"
	OutputImage          OutputKind = "image"
	OutputClassification OutputKind = "classification"
)

// DemoRequest is the normalized payload handed to the dispatcher.
// For question-answering RawInput holds an encoded QAPayload.
type DemoRequest struct {
	ModelOverride string
	RawInput      string
	DemoType      DemoType
}

// QAPayload is the compound input of an extractive question-answering demo.
type QAPayload struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// Encode serializes the payload into the single input string carried on the wire.
func (p QAPayload) Encode() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// DecodeQA parses an encoded QAPayload.
func DecodeQA(raw string) (QAPayload, error) {
	var p QAPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, err
	}
	return p, nil
}

// Listing is a published model entry in the portfolio.
type Listing struct {
	ID              string    `json:"id" yaml:"id" toml:"id"`
	Title           string    `json:"title" yaml:"title" toml:"title"`
	Description     string    `json:"description" yaml:"description" toml:"description"`
	Tags            []string  `json:"tags" yaml:"tags" toml:"tags"`
	PreviewImageURL string    `json:"preview_image_url,omitempty" yaml:"preview_image_url" toml:"preview_image_url"`
	ModelFileURL    string    `json:"model_file_url,omitempty" yaml:"model_file_url" toml:"model_file_url"`
	NotebookURL     string    `json:"notebook_url,omitempty" yaml:"notebook_url" toml:"notebook_url"`
	IsPublic        bool      `json:"is_public" yaml:"is_public" toml:"is_public"`
	DemoType        DemoType  `json:"demo_type" yaml:"demo_type" toml:"demo_type"`
	APIEndpoint     string    `json:"api_endpoint,omitempty" yaml:"api_endpoint" toml:"api_endpoint"`
	UserID          string    `json:"user_id" yaml:"user_id" toml:"user_id"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at" toml:"updated_at"`
	LikesCount      int       `json:"likes_count" yaml:"likes_count" toml:"likes_count"`
	DownloadsCount  int       `json:"downloads_count" yaml:"downloads_count" toml:"downloads_count"`
}

// VisibleTo reports whether viewer may see the listing. An empty viewer is anonymous.
func (l Listing) VisibleTo(viewer string) bool {
	return l.IsPublic || (viewer != "" && viewer == l.UserID)
}
