package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"modelfolio/internal/config"
	"modelfolio/internal/demo"
	"modelfolio/internal/dispatch"
	"modelfolio/internal/hfapi"
	"modelfolio/pkg/types"
)

type demoFlags struct {
	server   string
	local    bool
	demoType string
	input    string
	passage  string
	model    string
	out      string
}

func newDemoCmd() *cobra.Command {
	var f demoFlags
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run one model demo and print the result",
		Example: "  modelfolio demo --type sentiment-analysis --input \"I love this.\"\n" +
			"  modelfolio demo --type question-answering --input \"What color is the sky?\" --context \"The sky is blue.\"\n" +
			"  modelfolio demo --local --type text-to-image --input \"a lighthouse at dusk\" --out lighthouse.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := types.ParseDemoType(f.demoType)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runDemoCmd(ctx, cmd.OutOrStdout(), t, f, demoRunner(f))
		},
	}
	cmd.Flags().StringVar(&f.server, "server", "http://localhost:8080", "modelfolio server base URL")
	cmd.Flags().BoolVar(&f.local, "local", false, "Call the inference API directly instead of a server")
	cmd.Flags().StringVar(&f.demoType, "type", string(types.DemoTextToText), "Demo type")
	cmd.Flags().StringVar(&f.input, "input", "", "Demo input (the question for question-answering)")
	cmd.Flags().StringVar(&f.passage, "context", "", "Passage for question-answering")
	cmd.Flags().StringVar(&f.model, "model", "", "Model override")
	cmd.Flags().StringVar(&f.out, "out", "", "Write image output to this file")
	return cmd
}

// demoRunner returns an in-process dispatcher with --local, else an HTTP client.
func demoRunner(f demoFlags) demo.Runner {
	if !f.local {
		return demo.NewClient(f.server, nil)
	}
	cfg := config.ApplyEnv(config.ApplyDefaults(config.Config{}), os.Getenv)
	return dispatch.New(dispatch.Config{
		Upstream: hfapi.New(hfapi.Options{
			BaseURL:        cfg.HFBaseURL,
			RequestTimeout: cfg.RequestTimeout(),
			ConnectTimeout: cfg.ConnectTimeout(),
			MaxImageBytes:  cfg.MaxImageBytes,
		}),
		Token: cfg.TokenSource(os.Getenv),
	})
}

func runDemoCmd(ctx context.Context, w io.Writer, t types.DemoType, f demoFlags, r demo.Runner) error {
	wg := demo.NewWidget(t, f.model, r)
	defer wg.Close()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := wg.Submit(ctx, f.input, f.passage)
	if err != nil {
		return err
	}
	if err := demo.Render(w, res); err != nil {
		return err
	}
	if f.out == "" || res.Type != types.OutputImage {
		return nil
	}
	uri, _ := res.Text()
	_, data, err := demo.DecodeImage(uri)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.out, data, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Saved image to %s\n", f.out)
	return err
}
