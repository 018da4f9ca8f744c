package hfapi

import (
	"encoding/json"
	"errors"
	"sort"
)

// SummarizationParams are the length bounds of a summary, in tokens.
type SummarizationParams struct {
	MaxLength int `json:"max_length,omitempty"`
	MinLength int `json:"min_length,omitempty"`
}

// GenerationParams tune free text generation.
type GenerationParams struct {
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// Image is binary image data with its media type.
type Image struct {
	Data        []byte
	ContentType string
}

// Label is one scored class of a classification response.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Answer is an extractive question-answering result.
type Answer struct {
	Text  string
	Score float64
	Start int
	End   int
}

type taskRequest struct {
	Inputs     any `json:"inputs"`
	Parameters any `json:"parameters,omitempty"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type summarizationOutput struct {
	SummaryText string `json:"summary_text"`
}

type generatedOutput struct {
	GeneratedText string `json:"generated_text"`
}

type qaOutput struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

var errEmptyResponse = errors.New("empty response from inference API")

// decodeOne accepts either a one-element array or a bare object.
func decodeOne[T any](b []byte) (T, error) {
	var list []T
	if err := json.Unmarshal(b, &list); err == nil {
		if len(list) == 0 {
			var zero T
			return zero, errEmptyResponse
		}
		return list[0], nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return one, err
	}
	return one, nil
}

// decodeLabels accepts the nested ([[...]]) and flat ([...]) classification shapes.
func decodeLabels(b []byte) ([]Label, error) {
	var nested [][]Label
	if err := json.Unmarshal(b, &nested); err == nil {
		if len(nested) == 0 {
			return nil, errEmptyResponse
		}
		return nested[0], nil
	}
	var flat []Label
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func sortLabels(l []Label) {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Score > l[j].Score })
}
