// Command recount rebuilds the derived like and comment counters from the
// likes, comments and replies tables
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"Quad/internal/config"
	postgresRepo "Quad/internal/db/postgres"
	"Quad/internal/ops"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the recount after this long")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := ops.NewLogger(cfg.Logging)

	if cfg.Database.URL == "" {
		logger.Error("database url is required (DATABASE_URL)")
		os.Exit(1)
	}

	logger.Info("connecting to database")
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	result, err := postgresRepo.RecountDerived(ctx, db)
	if err != nil {
		logger.Error("recount failed", "error", err)
		os.Exit(1)
	}

	logger.Info("recount completed",
		"orphan_likes_removed", result.OrphanLikes,
		"post_like_counts_fixed", result.PostLikes,
		"comment_like_counts_fixed", result.CommentLikes,
		"reply_like_counts_fixed", result.ReplyLikes,
		"post_comment_counts_fixed", result.PostComments,
		"duration_ms", time.Since(start).Milliseconds())
}
