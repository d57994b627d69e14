package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/bootstrap"
	"github.com/jonesrussell/engagement-advisor/internal/config"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

type predictOptions struct {
	input     domain.PostInput
	apiKey    string
	modelPath string
	advice    bool
	asJSON    bool
}

func predictCommand(root *rootOptions) *cobra.Command {
	opts := &predictOptions{input: domain.DefaultPostInput()}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one post from flags and optionally request advice",
		Example: `  engagement predict --likes 2400 --media-type Carousel --content-category Travel
  engagement predict --advice --api-key "$ANTHROPIC_API_KEY" --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	in := &opts.input
	f.Float64Var(&in.Likes, domain.ColumnLikes, in.Likes, "likes")
	f.Float64Var(&in.Comments, domain.ColumnComments, in.Comments, "comments")
	f.Float64Var(&in.Shares, domain.ColumnShares, in.Shares, "shares")
	f.Float64Var(&in.Saves, domain.ColumnSaves, in.Saves, "saves")
	f.Float64Var(&in.Reach, domain.ColumnReach, in.Reach, "reach")
	f.Float64Var(&in.Impressions, domain.ColumnImpressions, in.Impressions, "impressions")
	f.Float64Var(&in.CaptionLength, "caption-length", in.CaptionLength, "caption length, 0-2200")
	f.Float64Var(&in.HashtagsCount, "hashtags-count", in.HashtagsCount, "hashtag count, 0-30")
	f.Float64Var(&in.FollowersGained, "followers-gained", in.FollowersGained, "followers gained")
	f.StringVar(&in.MediaType, "media-type", in.MediaType, "media type (Reel, Carousel, Photo, Video)")
	f.StringVar(&in.TrafficSource, "traffic-source", in.TrafficSource, "traffic source")
	f.StringVar(&in.ContentCategory, "content-category", in.ContentCategory, "content category")

	f.StringVar(&opts.apiKey, "api-key", "", "advisor API key; without one no advice is requested")
	f.StringVar(&opts.modelPath, "model", "", "model artifact path (overrides config)")
	f.BoolVar(&opts.advice, "advice", false, "request a strategy report")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON")

	return cmd
}

func runPredict(cmd *cobra.Command, root *rootOptions, opts *predictOptions) error {
	cfg, err := bootstrap.LoadConfig(root.configPath)
	if err != nil {
		return err
	}
	if opts.modelPath != "" {
		cfg.Model.Path = opts.modelPath
	}

	log, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	components, err := bootstrap.NewComponents(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	pred, err := components.Pipeline.Predict(cmd.Context(), opts.input)
	if err != nil {
		return err
	}

	result := domain.Analysis{Prediction: pred}
	if opts.advice {
		result.Advice = components.Pipeline.Advise(cmd.Context(), opts.apiKey, pred)
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printAnalysis(cmd.OutOrStdout(), result, opts.advice, components.Predictor.Info().Source())
	return nil
}

func printAnalysis(w io.Writer, a domain.Analysis, withAdvice bool, modelSource string) {
	p := a.Prediction

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Predicted engagement rate", p.Display.Percent},
		{"Tier", p.Display.Tier},
		{"Model", modelSource},
		{"Schema", p.SchemaVersion},
		{"Prediction ID", p.ID},
	})
	t.Render()

	if !withAdvice {
		return
	}
	fmt.Fprintln(w)
	if a.Advice.OK() {
		fmt.Fprintf(w, "Strategy report:\n%s\n", a.Advice.Text)
		return
	}
	fmt.Fprintln(w, a.Advice.Message)
}

// cliLogger keeps stdout for command output.
func cliLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       "warn",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(infralogger.String("service", cfg.Service.Name)), nil
}
