package types

import (
	"encoding/json"
	"errors"
)

// InferenceRequest is the body of POST /api/inference.
type InferenceRequest struct {
	// Optional model identifier. If empty, the default for the demo type is used.
	// example: facebook/bart-large-cnn
	Model string `json:"model,omitempty" example:"facebook/bart-large-cnn"`
	// Required input. For question-answering this is an encoded {question, context} object.
	// example: The tower is 324 metres tall, about the same height as an 81-storey building.
	Input string `json:"input" example:"The tower is 324 metres tall, about the same height as an 81-storey building."`
	// Demo type selecting the upstream operation. Unknown values fall back to text generation.
	// example: text-to-text
	DemoType DemoType `json:"demoType" example:"text-to-text"`
}

// ListingDemoRequest is the body of POST /api/models/{id}/demo.
type ListingDemoRequest struct {
	// User input (the question for question-answering demos).
	Input string `json:"input" example:"What color is the sky?"`
	// Passage for question-answering demos; ignored otherwise.
	Context string `json:"context,omitempty" example:"The sky is blue."`
}

// Classification is one ranked label of a classification result.
type Classification struct {
	Label string  `json:"label" example:"POSITIVE"`
	Score float64 `json:"score" example:"0.9998"`
}

// DemoResult is the normalized response of a demo invocation.
// Output is a string for text and image kinds and a []Classification for
// classification. Score is an optional confidence in [0,1].
type DemoResult struct {
	Output any        `json:"output"`
	Type   OutputKind `json:"type" example:"text"`
	Model  string     `json:"model" example:"facebook/bart-large-cnn"`
	Score  *float64   `json:"score,omitempty" example:"0.97"`
}

// Text returns Output as a string for text and image results.
func (r DemoResult) Text() (string, bool) {
	s, ok := r.Output.(string)
	return s, ok
}

// Labels returns Output as a ranked label list for classification results.
func (r DemoResult) Labels() ([]Classification, bool) {
	l, ok := r.Output.([]Classification)
	return l, ok
}

// UnmarshalJSON restores the concrete Output type from the result kind.
func (r *DemoResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Output json.RawMessage `json:"output"`
		Type   OutputKind      `json:"type"`
		Model  string          `json:"model"`
		Score  *float64        `json:"score"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Type, r.Model, r.Score = raw.Type, raw.Model, raw.Score
	r.Output = nil
	if len(raw.Output) == 0 || string(raw.Output) == "null" {
		return nil
	}
	switch raw.Type {
	case OutputClassification:
		var labels []Classification
		if err := json.Unmarshal(raw.Output, &labels); err != nil {
			return err
		}
		r.Output = labels
	case OutputText, OutputImage:
		var s string
		if err := json.Unmarshal(raw.Output, &s); err != nil {
			return err
		}
		r.Output = s
	default:
		return errors.New("unknown result type: " + string(raw.Type))
	}
	return nil
}

// ListingsResponse wraps a list of listings.
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Input is required
	Error string `json:"error" example:"Input is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
