package dispatch

import (
	"context"
	"encoding/base64"
	"mime"
	"net/url"
	"strings"

	"modelfolio/internal/hfapi"
	"modelfolio/pkg/types"
)

// Default upstream models per demo type.
const (
	DefaultSummarizationModel = "facebook/bart-large-cnn"
	DefaultCaptionModel       = "Salesforce/blip-image-captioning-large"
	DefaultImageModel         = "stabilityai/stable-diffusion-2"
	DefaultSentimentModel     = "distilbert-base-uncased-finetuned-sst-2-english"
	DefaultQAModel            = "deepset/roberta-base-squad2"
	DefaultGenerationModel    = "gpt2"
)

var (
	summarizationParams = hfapi.SummarizationParams{MaxLength: 150, MinLength: 30}
	generationParams    = hfapi.GenerationParams{MaxNewTokens: 100, Temperature: 0.7}
)

// input is the decoded form of DemoRequest.RawInput handed to a route.
type input struct {
	text string
	url  string
	qa   types.QAPayload
}

// route binds a demo type to its default model, input decoding, and the
// upstream call plus normalization.
type route struct {
	defaultModel string
	decode       func(raw string) (input, error)
	run          func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error)
}

func plainText(raw string) (input, error) { return input{text: raw}, nil }

func imageURL(raw string) (input, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return input{}, ErrInput("invalid image URL")
	}
	return input{url: u.String()}, nil
}

func qaPayload(raw string) (input, error) {
	p, err := types.DecodeQA(raw)
	if err != nil || strings.TrimSpace(p.Question) == "" || strings.TrimSpace(p.Context) == "" {
		return input{}, ErrInput("malformed QA payload")
	}
	return input{qa: p}, nil
}

func defaultRoutes() map[types.DemoType]route {
	return map[types.DemoType]route{
		types.DemoTextToText: {
			defaultModel: DefaultSummarizationModel,
			decode:       plainText,
			run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
				s, err := up.Summarize(ctx, token, model, in.text, summarizationParams)
				if err != nil {
					return types.DemoResult{}, err
				}
				return types.DemoResult{Output: s, Type: types.OutputText}, nil
			},
		},
		types.DemoImageToText: {
			defaultModel: DefaultCaptionModel,
			decode:       imageURL,
			run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
				img, err := up.FetchImage(ctx, in.url)
				if err != nil {
					return types.DemoResult{}, err
				}
				s, err := up.ImageToText(ctx, token, model, img)
				if err != nil {
					return types.DemoResult{}, err
				}
				return types.DemoResult{Output: s, Type: types.OutputText}, nil
			},
		},
		types.DemoTextToImage: {
			defaultModel: DefaultImageModel,
			decode:       plainText,
			run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
				img, err := up.TextToImage(ctx, token, model, in.text)
				if err != nil {
					return types.DemoResult{}, err
				}
				return types.DemoResult{Output: dataURI(img), Type: types.OutputImage}, nil
			},
		},
		types.DemoSentimentAnalysis: {
			defaultModel: DefaultSentimentModel,
			decode:       plainText,
			run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
				labels, err := up.TextClassification(ctx, token, model, in.text)
				if err != nil {
					return types.DemoResult{}, err
				}
				out := make([]types.Classification, 0, len(labels))
				for _, l := range labels {
					out = append(out, types.Classification{Label: l.Label, Score: l.Score})
				}
				return types.DemoResult{Output: out, Type: types.OutputClassification}, nil
			},
		},
		types.DemoQuestionAnswering: {
			defaultModel: DefaultQAModel,
			decode:       qaPayload,
			run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
				ans, err := up.QuestionAnswering(ctx, token, model, in.qa.Question, in.qa.Context)
				if err != nil {
					return types.DemoResult{}, err
				}
				score := ans.Score
				return types.DemoResult{Output: ans.Text, Type: types.OutputText, Score: &score}, nil
			},
		},
	}
}

// fallbackRoute serves unrecognized or absent demo types.
func fallbackRoute() route {
	return route{
		defaultModel: DefaultGenerationModel,
		decode:       plainText,
		run: func(ctx context.Context, up Upstream, token, model string, in input) (types.DemoResult, error) {
			s, err := up.TextGeneration(ctx, token, model, in.text, generationParams)
			if err != nil {
				return types.DemoResult{}, err
			}
			return types.DemoResult{Output: s, Type: types.OutputText}, nil
		},
	}
}

// dataURI encodes img as a base64 data URI. Non-image media types are labeled PNG.
func dataURI(img hfapi.Image) string {
	mt, _, err := mime.ParseMediaType(img.ContentType)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		mt = "image/png"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
