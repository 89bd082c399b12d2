package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	tea "github.com/charmbracelet/bubbletea"

	"mcpgate/auth"
	"mcpgate/config"
	"mcpgate/mcp"
	"mcpgate/model"
	"mcpgate/ollama"
	"mcpgate/rpc"
	"mcpgate/storage"
	"mcpgate/ui"
	"mcpgate/web"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	console := flag.Bool("console", false, "run the terminal console instead of the web server")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mcpgate %s (%s)\n", Version, License)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to load config: %v\n", err))
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())

	tools := rpc.NewClient(cfg.ToolEndpoint)
	discovery := mcp.NewDiscovery(cfg.Servers, Version)

	var explainer *ollama.Client
	if cfg.Assistant.Enabled {
		explainer, err = ollama.NewClient(cfg.Assistant.OllamaHost, cfg.Assistant.Model)
		if err != nil {
			ancli.PrintWarn(fmt.Sprintf("assistant disabled: %v\n", err))
			explainer = nil
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := explainer.Ping(ctx); err != nil {
				ancli.PrintWarn(fmt.Sprintf("ollama at %s is not reachable yet: %v\n", cfg.Assistant.OllamaHost, err))
			} else {
				ancli.PrintOK(fmt.Sprintf("assistant ready, model %s\n", explainer.GetModel()))
			}
			cancel()
		}
	}

	if *console {
		keys, err := config.LoadKeybindings(cfg.DataDir())
		if err != nil {
			ancli.PrintWarn(fmt.Sprintf("using default keybindings: %v\n", err))
			keys = config.DefaultKeybindings()
		}
		runConsole(tools, discovery, explainer, keys)
		return
	}

	if err := serve(cfg, tools, discovery, explainer); err != nil {
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		os.Exit(1)
	}
}

func runConsole(tools *rpc.Client, discovery *mcp.Discovery, explainer *ollama.Client, keys *config.KeyBindingsConfig) {
	var ex ui.Explainer
	if explainer != nil {
		ex = explainer
	}

	p := tea.NewProgram(
		ui.NewConsole(model.NewSession("console"), tools, discovery, ex, keys),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		ancli.PrintErr(fmt.Sprintf("error running console: %v\n", err))
		os.Exit(1)
	}
}

func serve(cfg *config.Config, tools *rpc.Client, discovery *mcp.Discovery, explainer *ollama.Client) error {
	store, err := storage.NewUserStore(cfg.StorePath(), cfg.Collection)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer store.Close()

	if n, err := store.Count(context.Background()); err == nil {
		ancli.PrintOK(fmt.Sprintf("user store ready: %d users in %q\n", n, cfg.Collection))
	} else {
		ancli.PrintWarn(fmt.Sprintf("could not count users: %v\n", err))
	}

	deps := web.Deps{
		Tools:     tools,
		Gate:      auth.NewGate(store),
		Discovery: discovery,
		Sessions:  model.NewRegistry(model.DefaultMaxIdle),
		Version:   Version,
	}
	// A nil *ollama.Client must not become a non-nil interface.
	if explainer != nil {
		deps.Explainer = explainer
	}

	app, err := web.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to build web front end: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ancli.PrintOK(fmt.Sprintf("listening on %s, tool endpoint %s\n", server.Addr, tools.Endpoint()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ancli.PrintOK("shutting down\n")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
