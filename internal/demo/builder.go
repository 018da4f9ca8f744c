// Package demo is the caller side of a model demo: it validates and packages
// user input into a DemoRequest, sends it to the inference endpoint, and
// tracks one widget's lifecycle.
package demo

import (
	"errors"
	"strings"

	"modelfolio/pkg/types"
)

// ValidationError rejects widget input before any network call is made.
type ValidationError struct{ msg string }

func (e ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}

var (
	errMissingInput    = ValidationError{msg: "missing input"}
	errMissingQAFields = ValidationError{msg: "missing question or context"}
)

// Build validates input for demoType and packages it into a DemoRequest.
// passage is only read for question-answering, where input is the question.
func Build(demoType types.DemoType, input, passage, modelOverride string) (types.DemoRequest, error) {
	req := types.DemoRequest{
		ModelOverride: strings.TrimSpace(modelOverride),
		DemoType:      demoType,
	}
	if demoType == types.DemoQuestionAnswering {
		if strings.TrimSpace(input) == "" || strings.TrimSpace(passage) == "" {
			return types.DemoRequest{}, errMissingQAFields
		}
		req.RawInput = types.QAPayload{Question: input, Context: passage}.Encode()
		return req, nil
	}
	if strings.TrimSpace(input) == "" {
		return types.DemoRequest{}, errMissingInput
	}
	req.RawInput = input
	return req, nil
}
