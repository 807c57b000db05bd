package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/at-fk/finalproject/app"
	"github.com/at-fk/finalproject/config"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services/answer"
	"github.com/at-fk/finalproject/services/article"
	"github.com/at-fk/finalproject/services/embedding"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// runtime carries what every command shares
type runtime struct {
	out    io.Writer
	logger *zap.Logger
}

func newApp(out io.Writer) *cli.App {
	rt := &runtime{out: out, logger: zap.NewNop()}

	return &cli.App{
		Name:  "lexctl",
		Usage: "Query the legal text search service from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: rt.setup,
		After: func(*cli.Context) error {
			_ = rt.logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a keyword or semantic search and print the results as JSON",
				ArgsUsage: "[query]",
				Action:    rt.searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "keyword or semantic", Value: string(models.SearchTypeKeyword)},
					&cli.StringFlag{Name: "regulation", Aliases: []string{"r"}, Usage: "Regulation ID"},
					&cli.StringFlag{Name: "start-article", Usage: "First article number of the range"},
					&cli.StringFlag{Name: "end-article", Usage: "Last article number of the range"},
					&cli.Float64Flag{Name: "threshold", Usage: "Similarity threshold between 0 and 1", Value: models.DefaultSimilarityThreshold},
					&cli.StringFlag{Name: "level", Usage: "article or paragraph", Value: string(models.SearchLevelArticle)},
					&cli.IntFlag{Name: "page", Value: models.DefaultPage},
					&cli.IntFlag{Name: "page-size", Value: models.DefaultPageSize},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the most similar paragraphs of a regulation",
				ArgsUsage: "<question>",
				Action:    rt.askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "regulation", Aliases: []string{"r"}, Usage: "Regulation ID", Required: true},
					&cli.Float64Flag{Name: "threshold", Usage: "Similarity threshold between 0 and 1", Value: models.DefaultSimilarityThreshold},
					&cli.IntFlag{Name: "max-contexts", Usage: "Number of paragraphs given to the model"},
					&cli.StringFlag{Name: "language", Usage: "ja or en"},
				},
			},
			{
				Name:      "structure",
				Usage:     "Print the chapter, section and article tree of a regulation",
				ArgsUsage: "<regulation-id>",
				Action:    rt.structureCommand,
			},
			{
				Name:      "article",
				Usage:     "Print an article with its paragraphs and legal references",
				ArgsUsage: "<article-id>",
				Action:    rt.articleCommand,
			},
			{
				Name:      "embed",
				Usage:     "Print the embedding vector of a text",
				ArgsUsage: "<text>",
				Action:    rt.embedCommand,
			},
		},
	}
}

func (rt *runtime) setup(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return err
		}
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	rt.logger = logger
	return nil
}

// withDependencies wires the full service graph for one command
func (rt *runtime) withDependencies(c *cli.Context, fn func(ctx context.Context, deps *app.Dependencies) error) error {
	ctx := c.Context

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}
	// the CLI is a single caller
	cfg.RateLimit.Enabled = false

	deps, err := app.NewDependencies(ctx, cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close(context.Background()) }()

	return fn(ctx, deps)
}

func (rt *runtime) searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	params := models.SearchParams{
		Type:         models.SearchType(c.String("type")),
		RegulationID: c.String("regulation"),
		StartArticle: c.String("start-article"),
		EndArticle:   c.String("end-article"),
		SearchLevel:  models.SearchLevel(c.String("level")),
		Page:         c.Int("page"),
		PageSize:     c.Int("page-size"),
	}
	if c.IsSet("threshold") {
		threshold := c.Float64("threshold")
		params.SimilarityThreshold = &threshold
	}

	switch params.Type {
	case models.SearchTypeSemantic:
		params.SemanticQuery = query
	case models.SearchTypeKeyword:
		params.Keyword = query
	default:
		return fmt.Errorf("unsupported search type %q", params.Type)
	}

	return rt.withDependencies(c, func(ctx context.Context, deps *app.Dependencies) error {
		resp, err := deps.Search.Search(ctx, params)
		if err != nil {
			return err
		}
		return rt.printJSON(resp)
	})
}

func (rt *runtime) askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required")
	}

	req := models.SemanticAskRequest{
		Query: question,
		SearchParams: models.SemanticAskParams{
			RegulationID: c.String("regulation"),
			MaxContexts:  c.Int("max-contexts"),
		},
		Language: models.Language(c.String("language")),
	}
	if c.IsSet("threshold") {
		threshold := c.Float64("threshold")
		req.SearchParams.SimilarityThreshold = &threshold
	}

	return rt.withDependencies(c, func(ctx context.Context, deps *app.Dependencies) error {
		events, err := deps.Answer.AskSemantic(ctx, req)
		if err != nil {
			return err
		}
		return rt.printAnswer(events)
	})
}

// printAnswer writes answer chunks as they arrive
func (rt *runtime) printAnswer(events <-chan answer.Event) error {
	for ev := range events {
		switch ev.Type {
		case answer.EventContext:
			rt.logger.Debug("answer context", zap.Int("length", len(ev.Content)))
		case answer.EventContent:
			if _, err := io.WriteString(rt.out, ev.Content); err != nil {
				return err
			}
		case answer.EventError:
			return ev.Err
		case answer.EventDone:
			_, err := io.WriteString(rt.out, "\n")
			return err
		}
	}
	return nil
}

func (rt *runtime) structureCommand(c *cli.Context) error {
	regulationID, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid regulation id %q", c.Args().First())
	}

	return rt.withDependencies(c, func(ctx context.Context, deps *app.Dependencies) error {
		structure, err := deps.Structure.GetStructure(ctx, regulationID)
		if err != nil {
			return err
		}
		return rt.printJSON(structure)
	})
}

func (rt *runtime) articleCommand(c *cli.Context) error {
	id, err := article.ParseID(c.Args().First())
	if err != nil {
		return err
	}

	return rt.withDependencies(c, func(ctx context.Context, deps *app.Dependencies) error {
		detail, err := deps.Articles.GetDetail(ctx, id)
		if err != nil {
			return err
		}
		return rt.printJSON(detail)
	})
}

// embedCommand only needs the embedding endpoint, not the database
func (rt *runtime) embedCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	cfg, err := config.New(c.Context)
	if err != nil {
		return err
	}

	client := embedding.NewJinaClient(embedding.Config{
		URL:        cfg.Embedding.URL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	}, rt.logger)

	vector, err := client.Embed(c.Context, text)
	if err != nil {
		return err
	}
	return rt.printJSON(map[string]interface{}{"embedding": vector})
}

func (rt *runtime) printJSON(v interface{}) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
