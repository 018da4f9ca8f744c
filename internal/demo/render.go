package demo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"modelfolio/pkg/types"
)

var errNotDataURI = errors.New("output is not a base64 data URI")

// Render writes a human-readable form of res. Image results are summarized;
// use DecodeImage to get the bytes.
func Render(w io.Writer, res types.DemoResult) error {
	switch res.Type {
	case types.OutputClassification:
		labels, _ := res.Labels()
		for _, l := range labels {
			if _, err := fmt.Fprintf(w, "%-24s %5.1f%%\n", l.Label, l.Score*100); err != nil {
				return err
			}
		}
	case types.OutputImage:
		s, _ := res.Text()
		mt, data, err := DecodeImage(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "[%s image, %d bytes]\n", mt, len(data)); err != nil {
			return err
		}
	default:
		s, _ := res.Text()
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
		if res.Score != nil {
			if _, err := fmt.Fprintf(w, "Confidence: %.1f%%\n", *res.Score*100); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "Model: %s\n", res.Model)
	return err
}

// DecodeImage splits a data:<type>;base64,<data> URI.
func DecodeImage(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNotDataURI
	}
	mt, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mt, data, nil
}
