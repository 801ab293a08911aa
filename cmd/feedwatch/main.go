// Command feedwatch follows the live feed over the realtime websocket and
// prints the merged feed after every change. With -post it opens a post
// view instead and can like the post or comment on it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"Quad/internal/client"
	"Quad/internal/config"
	"Quad/internal/core/comments"
	"Quad/internal/core/engagement"
	"Quad/internal/core/feed"
	"Quad/internal/core/identity"
	"Quad/internal/ops"
	"Quad/internal/realtime"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	postID := flag.String("post", "", "open this post instead of following the feed")
	like := flag.Bool("like", false, "toggle the viewer's like on -post")
	comment := flag.String("comment", "", "add a comment to -post")
	top := flag.Int("top", 10, "number of posts to print")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateClient(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := ops.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.New(cfg.Client.BaseURL, client.WithLogger(ops.WithComponent(logger, "client")))
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	if cfg.Client.UserID != "" {
		if _, err := api.Login(ctx, identity.Snapshot{UserID: cfg.Client.UserID, DisplayName: cfg.Client.UserID}); err != nil {
			logger.Error("login failed", "user", cfg.Client.UserID, "error", err)
			os.Exit(1)
		}
	}

	if *postID != "" {
		err = showPost(ctx, cfg, api, *postID, *like, *comment, os.Stdout, logger)
	} else {
		err = watchFeed(ctx, cfg, api, *top, os.Stdout, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("feedwatch failed", "error", err)
		os.Exit(1)
	}
}

func watchFeed(ctx context.Context, cfg *config.Config, api *client.Client, top int, out io.Writer, logger *slog.Logger) error {
	connector := realtime.NewConnector(cfg.StreamURL(), cfg.Realtime.ReconnectDelay, ops.WithComponent(logger, "connector"))

	view, err := feed.OpenFeedView(ctx, connector, api, feed.Options{
		Logger:     ops.WithComponent(logger, "feed"),
		PageSize:   cfg.Feed.PageSize,
		Tombstones: cfg.Feed.Tombstones,
		OnChange: func(posts []feed.Post) {
			printFeed(out, posts, top)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer view.Close()

	printFeed(out, view.Posts(), top)
	<-ctx.Done()
	return ctx.Err()
}

func showPost(ctx context.Context, cfg *config.Config, api *client.Client, postID string, like bool, comment string, out io.Writer, logger *slog.Logger) error {
	policy, err := engagement.ParseTogglePolicy(cfg.Engagement.TogglePolicy)
	if err != nil {
		return err
	}

	resolver := identity.NewResolver(identity.NewCache(), api, ops.WithComponent(logger, "identity"))
	view, err := engagement.OpenPostView(ctx, engagement.ViewDeps{
		Likes:     api,
		Assembler: comments.NewAssembler(api, resolver, ops.WithComponent(logger, "comments")),
		Logger:    ops.WithComponent(logger, "engagement"),
		Policy:    policy,
	}, postID, cfg.Client.UserID)
	if err != nil {
		return fmt.Errorf("failed to open post %s: %w", postID, err)
	}
	defer view.Close()

	if like {
		subject := engagement.PostSubject(postID)
		state, _ := view.Store().LikeState(subject)
		result, err := view.ToggleLike(ctx, subject, state.Liked)
		switch engagement.Classify(err) {
		case engagement.OutcomeOK:
			fmt.Fprintf(out, "like toggled: liked=%t count=%d\n", result.Final.Liked, result.Final.Count)
		case engagement.OutcomeTransient:
			fmt.Fprintf(out, "like failed, try again: %v\n", err)
		case engagement.OutcomeIgnored:
			fmt.Fprintln(out, "post is gone or a like is already in flight")
		default:
			return err
		}
	}

	if body := strings.TrimSpace(comment); body != "" {
		if _, err := view.AddComment(ctx, body); err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
	}

	printPost(out, view)
	return nil
}

func printFeed(out io.Writer, posts []feed.Post, top int) {
	fmt.Fprintf(out, "--- %d posts ---\n", len(posts))
	for i, p := range posts {
		if i == top {
			break
		}
		fmt.Fprintf(out, "%s  %-12s  ♥ %-4d 💬 %-4d %s\n",
			p.CreatedAt.Format("2006-01-02 15:04"), p.AuthorID, p.LikeCount, p.CommentCount, firstLine(p.Body))
	}
}

func printPost(out io.Writer, view *engagement.PostView) {
	store := view.Store()
	post, _ := store.LikeState(engagement.PostSubject(view.PostID()))
	fmt.Fprintf(out, "post %s  ♥ %d%s  💬 %d\n", view.PostID(), post.Count, likedMark(post), store.CommentCount())

	for _, node := range view.Tree().Nodes() {
		state, _ := store.LikeState(engagement.CommentSubject(node.Comment.ID))
		fmt.Fprintf(out, "  %s: %s  ♥ %d%s\n", node.Author.DisplayName, firstLine(node.Comment.Body), state.Count, likedMark(state))
		for _, reply := range node.Replies {
			state, _ := store.LikeState(engagement.ReplySubject(reply.Reply.ID))
			fmt.Fprintf(out, "    %s: %s  ♥ %d%s\n", reply.Author.DisplayName, firstLine(reply.Reply.Body), state.Count, likedMark(state))
		}
	}
}

func likedMark(s engagement.LikeState) string {
	if s.Liked {
		return " (you)"
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
