// Command angel-problem starts the Angel Problem game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, preset directory, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/angel-problem/api"
	"github.com/wricardo/angel-problem/game/config"
	"github.com/wricardo/angel-problem/game/service"
	"github.com/wricardo/angel-problem/game/session"
	"github.com/wricardo/angel-problem/transport/mcp"
	"github.com/wricardo/angel-problem/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Angel Problem Game Server"
)

const (
	sessionCleanupInterval = 1 * time.Hour
	sessionMaxAge          = 24 * time.Hour
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	presetDir    = flag.String("preset-dir", getPresetDirDefault(), "Directory containing game presets (*.json, *.yaml)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getPresetDirDefault returns the default preset directory.
// It first honors the PRESET_DIR environment variable, then falls back to "presets".
func getPresetDirDefault() string {
	if dir := os.Getenv("PRESET_DIR"); dir != "" {
		return dir
	}
	return "presets"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090            # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -preset-dir ./rules   # Load presets from ./rules\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp             # Run MCP stdio server\n", os.Args[0])
	}
}

// the hub receives both state updates and game events from every table
var _ service.EventNotifier = (*websocket.Hub)(nil)

// services bundles the long-lived components shared by every mode
type services struct {
	game     service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
}

func (s *services) close() {
	s.sessions.CloseAll()
	s.hub.Stop()
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// A missing .env file is the normal case
	if envErr == nil {
		logger.Info("loaded environment variables from .env file")
	} else if !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("error loading .env file", zap.Error(envErr))
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("mode", mode))

	svc, err := initializeServices(logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svc.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionCleanupRoutine(ctx, svc.sessions, logger)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svc, logger)

	case "server", "http":
		runHTTPServer(ctx, svc, logger)

	default:
		logger.Fatal("unknown mode; use 'server' (default) or 'stdio-mcp'", zap.String("mode", mode))
	}
}

// newLogger builds a production JSON logger, or a human-readable development
// logger with debug level enabled.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initializeServices wires the preset manager, the WebSocket hub, the session
// manager and the game service. Every table pushes its state changes to the hub.
func initializeServices(logger *zap.Logger) (*services, error) {
	configManager, err := config.NewManager(*presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	hub := websocket.NewHub(logger.Named("websocket"))
	go hub.Run()

	sessionManager := session.NewManager(
		session.WithLogger(logger.Named("session")),
		session.WithNotifier(hub),
	)

	presets, _ := configManager.ListConfigs()
	logger.Info("presets loaded",
		zap.String("dir", *presetDir),
		zap.Int("count", len(presets)),
		zap.String("default", configManager.GetDefault().Name))

	return &services{
		game:     service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		hub:      hub,
	}, nil
}

// newMainRouter mounts the REST API at the root and the MCP JSON-RPC proxy at /mcp.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()

	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, svc *services, logger *zap.Logger) {
	apiServer := api.NewServer(svc.game, svc.hub, logger.Named("api"))

	addr := fmt.Sprintf("%s:%d", *host, *port)

	// The MCP endpoint proxies back into this same server
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("rest", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if ngrokShouldRun() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, logger.Named("ngrok"))
		}()
	}

	sig := <-stop
	logger.Info("shutting down", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")
}

// ngrokShouldRun reports whether the tunnel is enabled by flag or NGROK_ENABLED
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// ngrokAuthToken returns the auth token from the flag or environment
// (both NGROK_AUTHTOKEN and NGROK_AUTH_TOKEN are accepted).
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// ngrokTunnel builds the endpoint config, with a custom domain from the flag
// or NGROK_DOMAIN when one is set.
func ngrokTunnel() (ngrokConfig.Tunnel, string) {
	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}
	if domain != "" {
		return ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain)), domain
	}
	return ngrokConfig.HTTPEndpoint(), ""
}

// runNgrokTunnel serves the router through an ngrok tunnel until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler, logger *zap.Logger) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	tunnel, domain := ngrokTunnel()
	if domain != "" {
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	// Closing the listener is what unblocks http.Serve
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("🚀 ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("rest", ngrokURL+"/api"),
		zap.String("websocket", ngrokURL+"/ws?session=<session_id>"),
		zap.String("mcp", ngrokURL+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *zap.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// externalAPIAvailable reports whether an API server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:<port>; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(svc *services, logger *zap.Logger) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	baseURL := externalURL

	logger.Info("checking for external API server", zap.String("url", externalURL))

	if externalAPIAvailable(externalURL) {
		logger.Info("external API server found, using it for MCP", zap.String("url", externalURL))
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logger.Fatal("failed to get available port", zap.Error(err))
		}
		internalAddr := listener.Addr().String()

		httpServer := &http.Server{
			Handler: api.NewServer(svc.game, svc.hub, logger.Named("api")),
		}
		defer httpServer.Close()

		// The listener is already bound, so requests queue until Serve runs
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		logger.Info("internal HTTP server started", zap.String("addr", internalAddr))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logger.Fatal("MCP stdio server error", zap.Error(err))
	}
}
