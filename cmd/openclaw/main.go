package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/openclaw/openclaw/internal/agent"
	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/channel/console"
	"github.com/openclaw/openclaw/internal/channel/socket"
	"github.com/openclaw/openclaw/internal/channel/webhook"
	"github.com/openclaw/openclaw/internal/config"
	"github.com/openclaw/openclaw/internal/heartbeat"
	"github.com/openclaw/openclaw/internal/llm"
	"github.com/openclaw/openclaw/internal/memory"
	"github.com/openclaw/openclaw/internal/rag"
	"github.com/openclaw/openclaw/internal/reminder"
	"github.com/openclaw/openclaw/internal/scheduler"
	"github.com/openclaw/openclaw/internal/tool"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("openclaw v%s\n", version)
	case "serve":
		if err := run(false); err != nil {
			slog.Error("fatal", "error", err)
			os.Exit(1)
		}
	case "console":
		if err := run(true); err != nil {
			slog.Error("fatal", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("OpenClaw - autonomous conversational agent")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  openclaw serve     Start the channel servers")
	fmt.Println("  openclaw console   Interactive local session")
	fmt.Println("  openclaw version   Show version info")
}

func run(consoleMode bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	setupLogging(cfg.Logging.Level)
	slog.Info("openclaw starting", "version", version, "home", config.Home())

	dataDir := cfg.DataDir
	for _, dir := range []string{dataDir, filepath.Join(dataDir, "daily"), filepath.Join(dataDir, "profiles")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig)
		cancel()
	}()

	go config.Watch(ctx)

	// Stores.
	shortTerm := memory.NewShortTerm(cfg.Agent.HistoryLimit)
	notes := memory.NewNoteStore(dataDir)
	profiles := memory.NewProfileStore(dataDir)

	var retriever rag.Retriever
	if cfg.RAG.Enabled {
		retriever = rag.NewHTTPRetriever(cfg.RAG.BaseURL, cfg.RAG.TopK, cfg.RAG.SimilarityThreshold)
	}

	// Scheduling.
	sched := scheduler.New(0)
	defer sched.Stop()

	reminderStore, err := reminder.NewStore(filepath.Join(dataDir, "reminders.db"))
	if err != nil {
		return fmt.Errorf("open reminder store: %w", err)
	}
	defer reminderStore.Close()

	adapters := channel.NewAdapterRegistry()
	engine := reminder.NewEngine(sched, adapters, reminderStore)

	monitor := heartbeat.NewMonitor(sched, filepath.Join(dataDir, "heartbeat-state.json"), cfg.Heartbeat.IntervalMinutes)

	// Tools.
	registry := tool.NewRegistry()
	tool.RegisterReminderTools(registry, engine)
	tool.RegisterMemoryTools(registry, notes, profiles)
	registry.Register(&tool.DatetimeTool{})
	registry.Register(tool.NewSearchTool(tool.SearchConfig{
		APIKey:        cfg.Tools.Search.APIKey,
		SearchDepth:   cfg.Tools.Search.SearchDepth,
		IncludeAnswer: cfg.Tools.Search.IncludeAnswer,
		MaxResults:    cfg.Tools.Search.MaxResults,
	}))
	registry.Register(tool.NewGitHubTool(tool.GitHubConfig{
		Token: cfg.Tools.GitHub.Token,
		Owner: cfg.Tools.GitHub.Owner,
		Repo:  cfg.Tools.GitHub.Repo,
	}))
	if retriever != nil {
		registry.Register(tool.NewKnowledgeTool(retriever))
	}
	for _, spec := range cfg.Tools.Remote {
		registry.Register(tool.NewRemoteTool(spec))
	}
	slog.Info("tools registered", "tools", registry.Names())

	// Agent core.
	client := llm.New(cfg.LLM.Provider)
	assembler := agent.NewAssembler(shortTerm, notes, profiles, retriever, registry, cfg.RAG.Enabled)
	planner := agent.NewPlanner(client, registry, agent.PlannerOptions{
		Model:         cfg.LLM.Model,
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		MaxIterations: cfg.Agent.MaxIterations,
		MaxRetries:    cfg.Agent.MaxRetries,
		RetryBackoff:  time.Duration(cfg.Agent.RetryBackoffSeconds) * time.Second,
	})
	service := agent.NewService(assembler, planner, shortTerm, notes)

	dispatcher := channel.NewDispatcher(service.Process, adapters, cfg.Agent.Workers)
	dispatcher.Start(ctx)

	dedup := channel.NewDedup(time.Duration(cfg.Agent.DedupTTLMinutes) * time.Minute)
	defer dedup.Close()

	// Register every adapter before the engine re-arms persisted reminders;
	// a reminder due right away must find its delivery channel.
	var serve func(context.Context) error
	if consoleMode {
		ca := console.New(dispatcher)
		adapters.Register(ca)
		serve = ca.Start
	} else {
		wa := webhook.New(webhook.Options{
			Port:          cfg.Gateway.Port,
			VerifyToken:   cfg.Gateway.Webhook.VerifyToken,
			PhoneNumberID: cfg.Gateway.Webhook.PhoneNumberID,
			APIToken:      cfg.Gateway.Webhook.APIToken,
		}, dispatcher, dedup)
		adapters.Register(wa)
		serve = wa.Start

		if cfg.Gateway.Socket.Enabled {
			sa := socket.New(socket.Options{
				URL:   cfg.Gateway.Socket.URL,
				Token: cfg.Gateway.Socket.Token,
			}, dispatcher, dedup)
			adapters.Register(sa)
			go func() {
				if err := sa.Start(ctx); err != nil && ctx.Err() == nil {
					slog.Error("socket channel stopped", "error", err)
				}
			}()
		}
	}

	if err := engine.Start(); err != nil {
		return fmt.Errorf("restore reminders: %w", err)
	}
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("start heartbeat: %w", err)
	}

	return serve(ctx)
}

func loadConfig() (*config.Config, error) {
	path := config.Path()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("no config found, writing example", "path", path)
			if werr := config.CreateFromExample(path); werr != nil {
				return nil, werr
			}
			cfg, err = config.Load(path)
		}
		if err != nil {
			return nil, err
		}
	}
	config.Set(cfg)
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
