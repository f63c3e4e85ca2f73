package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cortex/internal/confidence"
	"cortex/internal/graph"
	"cortex/pkg/config"
	apperrors "cortex/pkg/errors"
	"cortex/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "cortex",
		Usage: "Knowledge-graph note linking and decision confidence scoring",
		Commands: []*cli.Command{
			noteCommand(),
			autoLinkCommand(),
			linkFixCommand(),
			scoreCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openRepo loads config, initializes logging, and connects to Neo4j.
// The returned closer tears both down.
func openRepo(ctx context.Context) (*graph.Repository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		return nil, nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, nil, apperrors.NewGraphError("failed to create Neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, nil, apperrors.NewGraphError("failed to verify Neo4j connectivity", err)
	}

	repo := graph.NewRepository(driver)
	closer := func() {
		_ = repo.Close()
		logger.Sync()
	}
	return repo, closer, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func noteCommand() *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage notes, tags, and templates",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create or update a note",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "content", Usage: "Note content"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().Get(0)
					if name == "" {
						return fmt.Errorf("note name is required")
					}
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					return repo.CreateNote(ctx, name, cmd.String("content"))
				},
			},
			{
				Name:      "tag",
				Usage:     "Attach a tag to a note",
				ArgsUsage: "<note> <tag>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					note, tag := cmd.Args().Get(0), cmd.Args().Get(1)
					if note == "" || tag == "" {
						return fmt.Errorf("note and tag names are required")
					}
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					return repo.TagNote(ctx, note, tag)
				},
			},
			{
				Name:      "template",
				Usage:     "Attach a template to a note",
				ArgsUsage: "<note> <template>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					note, tpl := cmd.Args().Get(0), cmd.Args().Get(1)
					if note == "" || tpl == "" {
						return fmt.Errorf("note and template names are required")
					}
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					return repo.AssignTemplate(ctx, note, tpl)
				},
			},
			{
				Name:      "link",
				Usage:     "Create a human-authored link between two notes",
				ArgsUsage: "<from> <to>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					from, to := cmd.Args().Get(0), cmd.Args().Get(1)
					if from == "" || to == "" {
						return fmt.Errorf("from and to note names are required")
					}
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					return repo.LinkNotes(ctx, from, to)
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a note and its relationships",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().Get(0)
					if name == "" {
						return fmt.Errorf("note name is required")
					}
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					return repo.DeleteNote(ctx, name)
				},
			},
			{
				Name:  "list",
				Usage: "List all note names",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					repo, closer, err := openRepo(ctx)
					if err != nil {
						return err
					}
					defer closer()
					names, err := repo.ListNotes(ctx)
					if err != nil {
						return err
					}
					for _, name := range names {
						fmt.Println(name)
					}
					return nil
				},
			},
		},
	}
}

func autoLinkCommand() *cli.Command {
	return &cli.Command{
		Name:  "auto-link",
		Usage: "Compute note similarity and upsert weighted auto links",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "evidence",
				Usage: "Evidence kind: tag, template, or all",
				Value: string(graph.EvidenceAll),
			},
			&cli.IntFlag{
				Name:  "min-shared",
				Usage: "Minimum shared evidence items per pair",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "max-per-node",
				Usage: "Maximum outgoing auto links per source note",
				Value: 50,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, closer, err := openRepo(ctx)
			if err != nil {
				return err
			}
			defer closer()

			report, err := repo.AutoLink(ctx, graph.AutoLinkOptions{
				Evidence:   graph.EvidenceKind(cmd.String("evidence")),
				MinShared:  int(cmd.Int("min-shared")),
				MaxPerNode: int(cmd.Int("max-per-node")),
			})
			if err != nil {
				return apperrors.NewLinkError("auto-link pass failed", err)
			}
			return printJSON(report)
		},
	}
}

func linkFixCommand() *cli.Command {
	return &cli.Command{
		Name:  "link-fix",
		Usage: "Clean up the link graph: self-loops, duplicates, stale counts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "self", Usage: "Remove self-loop links", Value: true},
			&cli.BoolFlag{Name: "dedupe", Usage: "Remove duplicate parallel links", Value: true},
			&cli.BoolFlag{Name: "backfill", Usage: "Recompute shared counts from evidence", Value: true},
			&cli.BoolFlag{Name: "recompute", Usage: "Recompute weights from shared counts", Value: true},
			&cli.FloatFlag{Name: "prune-below", Usage: "Delete auto links with weight below this value"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, closer, err := openRepo(ctx)
			if err != nil {
				return err
			}
			defer closer()

			opts := graph.LinkFixOptions{
				RemoveSelf:      cmd.Bool("self"),
				Dedupe:          cmd.Bool("dedupe"),
				BackfillShared:  cmd.Bool("backfill"),
				RecomputeWeight: cmd.Bool("recompute"),
			}
			if cmd.IsSet("prune-below") {
				threshold := cmd.Float("prune-below")
				opts.RemoveAutoBelow = &threshold
			}

			report, err := repo.LinkFix(ctx, opts)
			if err != nil {
				return apperrors.NewLinkError("link-fix pass failed", err)
			}
			return printJSON(report)
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score a decision document (JSON or YAML)",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().Get(0)
			if path == "" {
				return fmt.Errorf("decision file path is required")
			}

			decision, err := confidence.LoadDecision(path)
			if err != nil {
				return apperrors.NewConfidenceError("failed to load decision document", err)
			}

			result := confidence.Calculate(*decision)
			logger.Get().Info("Decision scored",
				zap.String("decision", decision.Decision),
				zap.Float64("overall", result.Overall),
				zap.String("recommendation", result.Recommendation),
			)
			return printJSON(result)
		},
	}
}
