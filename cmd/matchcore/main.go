// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marketlounge/matchcore"
	"github.com/marketlounge/matchcore/core"
	"github.com/marketlounge/matchcore/encode"
	"github.com/marketlounge/matchcore/reencode"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "matchcore",
		Usage: "Hybrid lexical/semantic concept matching engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the engine data directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "encoder-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "encoder-model",
				Usage: "Embedding model name",
				Value: "all-MiniLM-L6-v2",
			},
			&cli.IntFlag{
				Name:  "encoder-dim",
				Usage: "Embedding dimension",
				Value: 384,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Match free text against the concept catalog",
				ArgsUsage: "<text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant id the results are filtered for",
						Required: true,
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Build and publish the next vector index snapshot",
				Action: rebuildCommand,
			},
			{
				Name:      "rollback",
				Usage:     "Re-activate a retained retired index snapshot",
				ArgsUsage: "<version>",
				Action:    rollbackCommand,
			},
			{
				Name:   "reencode",
				Usage:  "Refresh embeddings for concepts whose content changed",
				Action: reencodeCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of concepts to encode in each batch",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N concepts",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load a small demo catalog and claim it for a tenant",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Tenant id that claims the demo concepts",
						Value:   "T1",
					},
				},
			},
			{
				Name:   "audit",
				Usage:  "Print recent query log entries",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "How many entries to print",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openEngine(c *cli.Context) (*matchcore.Engine, error) {
	cfg := encode.NewConfig(
		encode.WithHost(c.String("encoder-host")),
		encode.WithModel(c.String("encoder-model")),
		encode.WithDimension(c.Int("encoder-dim")),
	)
	engine, err := matchcore.NewEngine(c.String("data"), matchcore.WithEncoderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening engine: %w", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		engine.Close()
		return nil, fmt.Errorf("starting engine: %w", err)
	}
	return engine, nil
}

func queryCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Match(context.Background(), text, c.String("tenant"), nil)
	if err != nil {
		return err
	}

	if result.Explain.Degraded {
		fmt.Fprintf(os.Stderr, "degraded result: %s\n", result.Explain.DegradedReason)
	}
	fmt.Printf("index version %d, %d candidates\n", result.Explain.IndexVersion, len(result.Shortlist))
	for _, cand := range result.Shortlist {
		marker := " "
		if cand.LexicalExact {
			marker = "*"
		}
		fmt.Printf("%2d.%s concept %d  fused=%.3f  lexical=%.3f  vector=%.3f\n",
			cand.Rank, marker, cand.ConceptId, cand.FusedScore, cand.LexicalScore, cand.VectorScore)
	}
	return nil
}

func rebuildCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	version, err := engine.RebuildIndex(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Printf("published index snapshot %d\n", version)
	return nil
}

func rollbackCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("usage: rollback <version>")
	}
	var version uint64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &version); err != nil {
		return fmt.Errorf("malformed version %q", c.Args().First())
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.RollbackIndex(context.Background(), version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Printf("serving index snapshot %d\n", version)
	return nil
}

func reencodeCommand(c *cli.Context) error {
	cfg := &reencode.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.NewReencoder(cfg, os.Stderr).Run(context.Background()); err != nil {
		return fmt.Errorf("re-encoding failed: %w", err)
	}
	return nil
}

// seedCommand loads a small French industrial demo catalog.
func seedCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	concepts := []*core.Concept{
		{
			Labels:   map[string]string{"fr": "Usinage de précision", "en": "Precision machining"},
			Synonyms: map[string][]string{"fr": {"usinage 5 axes", "fraisage de précision"}},
		},
		{
			Labels:   map[string]string{"fr": "Soudure aéronautique", "en": "Aerospace welding"},
			Synonyms: map[string][]string{"fr": {"soudage TIG aéronautique"}},
		},
		{
			Labels: map[string]string{"fr": "Chaudronnerie industrielle", "en": "Industrial boilermaking"},
		},
		{
			Labels:   map[string]string{"fr": "Traitement de surface", "en": "Surface treatment"},
			Synonyms: map[string][]string{"fr": {"anodisation", "peinture industrielle"}},
		},
	}

	saved, err := engine.PutConcepts(ctx, concepts...)
	if err != nil {
		return fmt.Errorf("storing demo catalog: %w", err)
	}

	tenant := c.String("tenant")
	for _, concept := range saved {
		err := engine.SetActivation(ctx, &core.ActivationRecord{
			TenantId:  tenant,
			ConceptId: concept.Id,
			Claimed:   true,
		})
		if err != nil {
			return fmt.Errorf("claiming concept %d: %w", concept.Id, err)
		}
		fmt.Printf("concept %d: %s\n", concept.Id, concept.Labels["fr"])
	}
	fmt.Printf("seeded %d concepts claimed by tenant %s\n", len(saved), tenant)
	fmt.Println("run 'matchcore reencode' then 'matchcore rebuild' to enable the vector path")
	return nil
}

func auditCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	entries, err := engine.QueryLogRepository().Recent(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("reading query log: %w", err)
	}

	for _, entry := range entries {
		flags := ""
		if entry.CacheHit {
			flags += " cache-hit"
		}
		if entry.Degraded {
			flags += " degraded:" + entry.DegradedReason
		}
		fmt.Printf("%s  tenant=%s  v%d  %d candidates  %q%s\n",
			entry.Timestamp.Format(time.RFC3339), entry.TenantId, entry.IndexVersion,
			len(entry.Candidates), entry.NormalizedQuery, flags)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
