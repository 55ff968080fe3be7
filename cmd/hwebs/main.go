// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hwebs/content"
	"github.com/hwebs/content/admin"
	"github.com/hwebs/content/config"
	"github.com/hwebs/content/seed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hwebs",
		Usage: "Manage and browse site content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "client",
				Usage: "Storage backend (sqlite, dynamodb, memory, badger); overrides HWEBS_INFO_CLIENT",
			},
			&cli.StringFlag{
				Name:  "sqlite-file",
				Usage: "SQLite database file; overrides HWEBS_INFO_SQLITE_DB_FILE",
			},
			&cli.StringFlag{
				Name:  "badger-dir",
				Usage: "Badger data directory; overrides HWEBS_INFO_BADGER_DIR",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Reset the store and load fixture data",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "fixtures",
						Aliases: []string{"f"},
						Usage:   "YAML fixture file (built-in fixtures if omitted)",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent post inserts",
						Value: 4,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the read-only admin site",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				},
			},
			{
				Name:   "posts",
				Usage:  "List posts",
				Action: postsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Usage:   "Only list posts in this category id",
					},
				},
			},
			{
				Name:   "categories",
				Usage:  "List categories",
				Action: categoriesCommand,
			},
		},
	}
}

// openClient builds the content client from the environment, with global
// flags taking precedence.
func openClient(c *cli.Context) (*content.Client, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if c.IsSet("client") {
		cfg.Backend = c.String("client")
	}
	if c.IsSet("sqlite-file") {
		cfg.SQLiteFile = c.String("sqlite-file")
	}
	if c.IsSet("badger-dir") {
		cfg.BadgerDir = c.String("badger-dir")
	}
	client, err := content.NewClient(cfg, content.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open content client: %w", err)
	}
	return client, nil
}

func seedCommand(c *cli.Context) error {
	ctx := c.Context

	var fixtures *seed.Fixtures
	if path := c.String("fixtures"); path != "" {
		var err error
		fixtures, err = seed.LoadFixtures(path)
		if err != nil {
			return err
		}
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := seed.Run(ctx, client, fixtures, seed.WithPoolSize(c.Int("pool-size")))
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d categories and %d posts into %s\n",
		len(result.Categories), len(result.Posts), client.Backend())
	return nil
}

func postsCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	posts, err := client.Posts().ListPosts(c.Context, c.String("category"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLINK\tCATEGORY\tDATETIME")
	for _, post := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", post.ID, post.Title, post.Link, post.Category, post.Datetime)
	}
	return tw.Flush()
}

func categoriesCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	categories, err := client.Categories().ListCategories(c.Context)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE")
	for _, category := range categories {
		fmt.Fprintf(tw, "%s\t%s\n", category.ID, category.Title)
	}
	return tw.Flush()
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	server := &http.Server{
		Addr:              c.String("addr"),
		Handler:           admin.NewHandler(client, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving admin site", "addr", server.Addr, "backend", client.Backend())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down admin site")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
