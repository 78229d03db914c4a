// cmd/quiz/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jason-s-yu/newsquiz/internal/cache"
	"github.com/jason-s-yu/newsquiz/internal/config"
	"github.com/jason-s-yu/newsquiz/internal/game"
	"github.com/jason-s-yu/newsquiz/internal/middleware"
	"github.com/jason-s-yu/newsquiz/internal/render"
	"github.com/jason-s-yu/newsquiz/internal/roomclient"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/submit"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: middleware.LogTransport(logger)(http.DefaultTransport),
	}
	api := roomclient.New(cfg.BaseURL, roomclient.WithHTTPClient(httpClient), roomclient.WithLogger(logger))

	opts := game.Options{
		PollInterval: cfg.PollInterval,
		HintInterval: cfg.HintInterval,
		ResultsDelay: cfg.ResultsDelay,
		Logger:       logger,
	}
	if cfg.RedisAddr != "" {
		pub, err := cache.NewPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue)
		if err != nil {
			logger.Warnf("match history disabled: %v", err)
		} else {
			defer pub.Close()
			opts.Recorder = pub
		}
	}

	view := render.NewText(os.Stdout)
	g := game.New(api, view, opts)
	defer g.Close()

	logger.Infof("Using room service at %s", cfg.BaseURL)
	view.ShowScreen(screen.Home)
	if _, err := g.Health(ctx); err != nil {
		logger.Warnf("health check failed: %v", err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = g.Leave(context.Background())
			return
		case line, ok := <-lines:
			if !ok {
				_ = g.Leave(context.Background())
				return
			}
			if quit := dispatch(ctx, g, view, strings.TrimSpace(line)); quit {
				_ = g.Leave(context.Background())
				return
			}
		}
	}
}

// dispatch runs one command line. Errors are already shown as notices by Game.
func dispatch(ctx context.Context, g *game.Game, view *render.Text, line string) (quit bool) {
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true
	case "health":
		_, err = g.Health(ctx)
	case "create":
		if arg != "" {
			if err = g.OpenCreate(); err == nil {
				err = g.CreateRoom(ctx, arg)
			}
		} else {
			err = g.OpenCreate()
		}
	case "name":
		err = g.CreateRoom(ctx, arg)
	case "back":
		err = g.Back()
	case "join":
		code, name, _ := strings.Cut(arg, " ")
		err = g.JoinRoom(ctx, code, name)
	case "start":
		err = g.StartGame(ctx)
	case "guess":
		err = g.SubmitGuess(ctx, arg)
	case "next":
		err = g.NextQuestion(ctx)
	case "leave":
		err = g.Leave(ctx)
	case "new":
		err = g.NewGame()
	default:
		if g.Screen() == screen.Game {
			// bare text on the game screen is an answer
			err = g.SubmitGuess(ctx, line)
		} else {
			view.Notify(game.NoticeWarning, fmt.Sprintf("unknown command %q", cmd))
		}
	}

	switch {
	case errors.Is(err, submit.ErrInputClosed):
		view.Notify(game.NoticeInfo, "Answer accepted already. Type 'next' to continue.")
	case errors.Is(err, screen.ErrInvalidTransition):
		view.Notify(game.NoticeWarning, fmt.Sprintf("%q is not available on the %s screen", cmd, g.Screen()))
	}
	return false
}
