package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/wingman/internal/api"
	"github.com/kalambet/wingman/internal/config"
	"github.com/kalambet/wingman/internal/genai"
	"github.com/kalambet/wingman/internal/orchestrator"
	"github.com/kalambet/wingman/internal/recorder"
	"github.com/kalambet/wingman/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the wingman server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running wingman server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wingman system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "wingman.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func initLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func buildOrchestrator(cfg config.Config) (*orchestrator.Orchestrator, *recorder.Recorder, *storage.Store, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	gw := genai.NewClient(genai.Options{
		APIKey:        cfg.GenAI.APIKey,
		BaseURL:       cfg.GenAI.BaseURL,
		Model:         cfg.GenAI.Model,
		Mode:          genai.Mode(cfg.GenAI.Transport),
		Timeout:       time.Duration(cfg.GenAI.Timeout) * time.Second,
		StreamTimeout: time.Duration(cfg.GenAI.StreamTimeout) * time.Second,
	})

	rec := recorder.New(store)
	return orchestrator.New(gw, rec), rec, store, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "wingman version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initLogging(cfg.Log.Level)

	apiToken, err := config.GetAPIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("wingman is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("wingman is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, rec, store, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Orchestrator: orch,
		Recorder:     rec,
		Targets:      store,
		Token:        apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("wingman listening", "addr", addr, "model", cfg.GenAI.Model, "transport", cfg.GenAI.Transport)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runMCP serves the assistant over stdio for MCP hosts. It talks to
// the model directly, no running HTTP server required.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, _, store, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{Orchestrator: orch})
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("wingman is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop wingman (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to wingman (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s", cfg.GenAI.Model)
	printStatus("Transport", "%s", cfg.GenAI.Transport)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
