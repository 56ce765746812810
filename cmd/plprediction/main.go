package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/gtourv/PLprediction/internal/api"
	"github.com/gtourv/PLprediction/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "plprediction",
		Usage: "Premier League table prediction game",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"PLPREDICTION_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			refreshCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func load(c *cli.Context) (*app, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(c.Context, cfg)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "bootstrap the schema and serve the HTTP API",
		Action: func(c *cli.Context) error {
			a, err := load(c)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			var gatherer prometheus.Gatherer
			if a.registry != nil {
				gatherer = a.registry
			}
			handlers := api.NewHandlers(a.service, a.metrics, a.logger)
			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           api.NewRouter(handlers, gatherer),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.InfoContext(ctx, "HTTP server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.logger.Info("Server shut down gracefully")
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the schema and seed the default standings",
		Action: func(c *cli.Context) error {
			a, err := load(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Migrate(c.Context); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "fetch the current table once and store it",
		Action: func(c *cli.Context) error {
			a, err := load(c)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Migrate(c.Context); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			res, err := a.service.Refresh(c.Context)
			if err != nil {
				return err
			}

			if res.Updated {
				fmt.Println("Standings updated:")
			} else {
				fmt.Printf("Standings unchanged: %v\n", res.Warning)
			}
			for i, team := range res.Teams {
				fmt.Printf("%2d. %s\n", i+1, team)
			}
			if len(res.Snippets) > 0 {
				fmt.Println(strings.Join(res.Snippets, "\n"))
			}
			return nil
		},
	}
}
