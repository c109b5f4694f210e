// Command admin is the operator CLI: season rollover, whitelist management,
// rankings and match refreshes without going through chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/scraper"
	rankingservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/application"
	seasonservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/application"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/database"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/config"
)

const refreshConcurrency = 8

// env is built lazily by commands that need the database.
type env struct {
	cfg      *config.Config
	obs      observability.Observability
	db       *bun.DB
	seasons  *seasonservice.SeasonService
	matches  *matchservice.MatchService
	rankings *rankingservice.RankingService
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	obs := observability.NewNoop()
	obs.Logger = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.Environment)

	db, err := database.Open(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	seasons := seasonservice.NewSeasonService(seasondb.NewRepository(db), obs.Logger, observability.NoopOperationMetrics{}, obs.Tracer, db, cfg.Season.GraceWindow)
	repo := matchdb.NewRepository(db)
	return &env{
		cfg:      cfg,
		obs:      obs,
		db:       db,
		seasons:  seasons,
		matches:  matchservice.NewMatchService(repo, seasons, obs.Logger, observability.NoopOperationMetrics{}, obs.Tracer, db),
		rankings: rankingservice.NewRankingService(repo, obs.Logger, observability.NoopOperationMetrics{}, obs.Tracer),
	}, nil
}

func withEnv(action func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := newEnv(c)
		if err != nil {
			return err
		}
		defer e.db.Close()
		return action(c, e)
	}
}

func main() {
	cliApp := &cli.App{
		Name:  "admin",
		Usage: "operate the geoguessr bot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seasonCommand(),
			whitelistCommand(),
			rankingCommand(),
			refreshCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply module and River migrations",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := database.Migrate(c.Context, e.db, e.obs.Logger); err != nil {
				return err
			}
			return database.MigrateRiver(c.Context, e.cfg.Postgres.DSN)
		}),
	}
}

func seasonCommand() *cli.Command {
	return &cli.Command{
		Name:  "season",
		Usage: "season management",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print every season",
				Action: withEnv(func(c *cli.Context, e *env) error {
					seasons, err := e.seasons.ListSeasons(c.Context)
					if err != nil {
						return err
					}
					if len(seasons) == 0 {
						fmt.Println("No seasons recorded; season 1 is open")
						return nil
					}
					for _, s := range seasons {
						if s.EndedAt == nil {
							fmt.Printf("Season %d: open\n", s.Number)
							continue
						}
						fmt.Printf("Season %d: closed %s\n", s.Number, s.EndedAt.Format(time.RFC3339))
					}
					return nil
				}),
			},
			{
				Name:  "rollover",
				Usage: "close the current season and open the next",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "at", Value: "now", Usage: `end time, e.g. "2026-09-30 20:00" or "yesterday 18:00"`},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					endAt, err := seasonservice.ParseRolloverTime(c.String("at"), time.Now(), e.cfg.Location())
					if err != nil {
						return err
					}
					result, err := e.seasons.Rollover(c.Context, endAt)
					if err != nil {
						return err
					}
					if result.IsFailure() {
						return *result.Failure
					}
					fmt.Printf("Closed season %d at %s, season %d is open\n",
						result.Success.ClosedSeason, result.Success.ClosedAt.Format(time.RFC3339), result.Success.OpenedSeason)
					return nil
				}),
			},
		},
	}
}

func whitelistCommand() *cli.Command {
	return &cli.Command{
		Name:  "whitelist",
		Usage: "whitelist management",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "whitelist one or more player names",
				ArgsUsage: "<name...>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					if c.NArg() == 0 {
						return errors.New("at least one name is required")
					}
					for _, name := range c.Args().Slice() {
						result, err := e.matches.AddToWhitelist(c.Context, name)
						if err != nil {
							return err
						}
						if result.IsFailure() {
							return *result.Failure
						}
						if result.Success.Added {
							fmt.Printf("Added %s\n", result.Success.Name)
						} else {
							fmt.Printf("%s was already whitelisted\n", result.Success.Name)
						}
					}
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "print the whitelist",
				Action: withEnv(func(c *cli.Context, e *env) error {
					names, err := e.matches.ListWhitelist(c.Context)
					if err != nil {
						return err
					}
					fmt.Println(strings.Join(names, "\n"))
					return nil
				}),
			},
		},
	}
}

func categoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "map", Required: true, Usage: "map identifier"},
		&cli.IntFlag{Name: "time-limit", Required: true, Usage: "round time limit in seconds"},
	}
}

func categoryFrom(c *cli.Context) matchdomain.Category {
	return matchdomain.Category{Map: c.String("map"), TimeLimit: c.Int("time-limit")}
}

func rankingCommand() *cli.Command {
	outFlag := func(def string) cli.Flag {
		return &cli.StringFlag{Name: "out", Value: def, Usage: "output file"}
	}

	return &cli.Command{
		Name:  "ranking",
		Usage: "category rankings",
		Subcommands: []*cli.Command{
			{
				Name:  "categories",
				Usage: "print every category with its match count",
				Action: withEnv(func(c *cli.Context, e *env) error {
					rows, err := e.matches.ListCategories(c.Context)
					if err != nil {
						return err
					}
					for _, r := range rows {
						fmt.Printf("%-30s %d matches\n", r.Category(), r.Matches)
					}
					return nil
				}),
			},
			{
				Name:  "show",
				Usage: "print totals and averages for a category",
				Flags: categoryFlags(),
				Action: withEnv(func(c *cli.Context, e *env) error {
					standings, err := e.rankings.Aggregate(c.Context, categoryFrom(c))
					if err != nil {
						return err
					}
					fmt.Printf("%d matches\n\nTotals\n", standings.Matches)
					for _, s := range standings.Totals {
						fmt.Printf("%3d. %-24s %s\n", s.Rank, s.Label(), s.Display())
					}
					fmt.Println("\nAverages")
					for _, s := range standings.Averages {
						fmt.Printf("%3d. %-24s %s (%d played)\n", s.Rank, s.Label(), s.Display(), s.Matches)
					}
					return nil
				}),
			},
			{
				Name:  "export",
				Usage: "write the standings of a category to a workbook",
				Flags: append(categoryFlags(), outFlag("rankings.xlsx")),
				Action: withEnv(func(c *cli.Context, e *env) error {
					category := categoryFrom(c)
					standings, err := e.rankings.Aggregate(c.Context, category)
					if err != nil {
						return err
					}
					data, err := rankingservice.ExportStandingsXLSX(category, standings)
					if err != nil {
						return err
					}
					return writeFile(c.String("out"), data)
				}),
			},
			{
				Name:  "chart",
				Usage: "render total points of a category as a PNG",
				Flags: append(categoryFlags(), outFlag("rankings.png")),
				Action: withEnv(func(c *cli.Context, e *env) error {
					category := categoryFrom(c)
					standings, err := e.rankings.Aggregate(c.Context, category)
					if err != nil {
						return err
					}
					img, err := rankingservice.RenderStandingsChart(category.String(), standings.Totals, rankingservice.DefaultPalette)
					if err != nil {
						return err
					}
					return writeFile(c.String("out"), img)
				}),
			},
			{
				Name:  "records",
				Usage: "print the best raw scores of every category",
				Action: withEnv(func(c *cli.Context, e *env) error {
					records, err := e.rankings.Records(c.Context)
					if err != nil {
						return err
					}
					for _, cat := range records {
						fmt.Println(cat.Category)
						for _, r := range cat.Top {
							fmt.Printf("  %d. %-24s %6d  %s\n", r.Rank, r.Player, r.Score, r.Link)
						}
					}
					return nil
				}),
			},
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "re-scrape matches",
		ArgsUsage: "[link...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "refresh every known match"},
			&cli.BoolFlag{Name: "now", Usage: "scrape and reconcile in this process instead of queueing"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			links := c.Args().Slice()
			if c.Bool("all") {
				known, err := e.matches.ListLinks(c.Context)
				if err != nil {
					return err
				}
				links = append(links, known...)
			}
			if len(links) == 0 {
				return errors.New("pass links or --all")
			}

			if c.Bool("now") {
				return refreshNow(c.Context, e, links)
			}
			return enqueueAll(c.Context, e, links)
		}),
	}
}

// enqueueAll inserts refresh jobs without running workers; the bot picks
// them up.
func enqueueAll(ctx context.Context, e *env, links []string) error {
	queue, err := matchqueue.NewService(ctx, matchqueue.Config{
		DSN:         e.cfg.Postgres.DSN,
		MaxAttempts: e.cfg.Queue.MaxAttempts,
	}, nil, e.obs.Logger, observability.NoopOperationMetrics{})
	if err != nil {
		return err
	}
	defer queue.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, link := range links {
		g.Go(func() error {
			res, err := queue.EnqueueRefresh(gctx, link, "")
			if err != nil {
				return fmt.Errorf("%s: %w", link, err)
			}
			if res.Duplicate {
				fmt.Printf("%s already queued\n", link)
			} else {
				fmt.Printf("%s queued as job %d\n", link, res.JobID)
			}
			return nil
		})
	}
	return g.Wait()
}

// refreshNow scrapes sequentially so the rate limiter paces the requests.
func refreshNow(ctx context.Context, e *env, links []string) error {
	fetcher := scraper.NewFetcher(scraper.Config{
		BaseURL:           e.cfg.Scraper.BaseURL,
		RequestsPerSecond: e.cfg.Scraper.RequestsPerSecond,
		Burst:             e.cfg.Scraper.Burst,
		Timeout:           e.cfg.Scraper.Timeout,
	})

	var failed []string
	for _, link := range links {
		if err := refreshOne(ctx, e, fetcher, link); err != nil {
			e.obs.Logger.ErrorContext(ctx, "Refresh failed", slog.String("link", link), slog.Any("error", err))
			failed = append(failed, link)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d refreshes failed: %s", len(failed), len(links), strings.Join(failed, ", "))
	}
	return nil
}

func refreshOne(ctx context.Context, e *env, fetcher scraper.PageFetcher, link string) error {
	body, err := fetcher.FetchResults(ctx, link)
	if err != nil {
		return err
	}
	raw, err := scraper.Extract(body)
	if err != nil {
		return err
	}
	result, err := e.matches.Reconcile(ctx, link, raw)
	if err != nil {
		return err
	}
	if result.IsFailure() {
		return *result.Failure
	}

	o := result.Success
	fmt.Printf("%s: season %d %s, %d inserted, %d updated, %d skipped\n",
		link, o.Season, o.Status, o.Inserted, o.Updated, len(o.Skipped))
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
