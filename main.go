// Command partyhost starts the party session host.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the event WebSocket and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the preset directory, allowed browser origins,
// debug logging and optional ngrok tunneling for external access during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/partyhost/api"
	"github.com/wricardo/partyhost/game/config"
	"github.com/wricardo/partyhost/game/minefield"
	"github.com/wricardo/partyhost/game/service"
	"github.com/wricardo/partyhost/game/session"
	"github.com/wricardo/partyhost/transport/mcp"
	"github.com/wricardo/partyhost/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Party Host Server"
)

// options is the resolved command line.
type options struct {
	Host          string
	Port          int
	ConfigDir     string
	FieldPreset   string
	ClientOrigins []string
	CodeDigits    int
	Debug         bool

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "partyhost",
		Usage:   "real-time rooms, a shared minefield and a shared canvas over websockets",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 3001, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing minefield presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "field-preset", Usage: "Preset for the shared minefield (default: classic)", Sources: cli.EnvVars("FIELD_PRESET")},
			&cli.StringSliceFlag{Name: "client-origins", Value: []string{"http://localhost:5173"}, Usage: "Browser origins allowed to open the WebSocket", Sources: cli.EnvVars("CLIENT_ORIGINS")},
			&cli.IntFlag{Name: "code-digits", Value: session.DefaultCodeDigits, Usage: "Digits in a room code", Sources: cli.EnvVars("CODE_DIGITS")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
		},
		Action: runHTTPServer,
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		Host:          cmd.String("host"),
		Port:          int(cmd.Int("port")),
		ConfigDir:     cmd.String("config-dir"),
		FieldPreset:   cmd.String("field-preset"),
		ClientOrigins: cmd.StringSlice("client-origins"),
		CodeDigits:    int(cmd.Int("code-digits")),
		Debug:         cmd.Bool("debug"),
		NgrokEnabled:  cmd.Bool("ngrok"),
		NgrokAuth:     cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// main loads .env, parses flags and starts the selected mode.
func main() {
	// Flags read the environment, so .env has to be loaded first.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// services is everything a mode needs to serve traffic.
type services struct {
	hub         *websocket.Hub
	coordinator *service.Coordinator
	presets     *config.Manager
}

// initializeServices wires the preset catalog, room directory, minefield and hub.
func initializeServices(opts options, logger *zap.Logger) (*services, error) {
	preset := minefield.DefaultPreset()

	presets, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		logger.Warn("preset directory unavailable, using built-in field", zap.String("dir", opts.ConfigDir), zap.Error(err))
	} else {
		if opts.FieldPreset != "" {
			if err := presets.SetDefault(opts.FieldPreset); err != nil {
				return nil, fmt.Errorf("failed to select preset %q: %w", opts.FieldPreset, err)
			}
		}
		preset = presets.GetDefault()
	}
	if presets == nil && opts.FieldPreset != "" {
		return nil, fmt.Errorf("preset %q requested but %s is unavailable", opts.FieldPreset, opts.ConfigDir)
	}

	rooms, err := session.NewManager(session.WithCodeDigits(opts.CodeDigits))
	if err != nil {
		return nil, fmt.Errorf("failed to create room manager: %w", err)
	}

	field, err := minefield.NewGame(preset, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create minefield: %w", err)
	}

	hub := websocket.NewHub(logger.Named("hub"), opts.ClientOrigins)
	coordinator := service.NewCoordinator(rooms, field, hub, logger.Named("coordinator"))
	if presets != nil {
		coordinator.SetPresets(presets)
	}

	logger.Info("services initialized",
		zap.String("preset", preset.Name),
		zap.Int("rows", preset.Rows),
		zap.Int("cols", preset.Cols),
		zap.Int("mines", preset.Mines),
		zap.Int("code_digits", opts.CodeDigits),
	)

	return &services{hub: hub, coordinator: coordinator, presets: presets}, nil
}

// mcpHTTPHandler serves single JSON-RPC messages posted to /mcp.
func mcpHTTPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)

	logger, err := newLogger(opts.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))

	svc, err := initializeServices(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.hub.Run(ctx, svc.coordinator)

	apiServer := api.NewServer(svc.coordinator, svc.hub, logger.Named("api"))

	addr := opts.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter, logger.Named("ngrok"))
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends.
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler, logger *zap.Logger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("websocket", ngrokURL+"/ws"),
		zap.String("mcp", ngrokURL+"/mcp"),
	)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses a host already serving on
// the configured address, otherwise it starts an internal HTTP API on a
// random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)

	// stdout carries the protocol; logs go to stderr.
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	externalURL := fmt.Sprintf("http://%s", opts.addr())
	baseURL := externalURL

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode < 500 {
		logger.Info("external API server found, using it for MCP", zap.String("url", externalURL))
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(opts, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go svc.hub.Run(ctx, svc.coordinator)

		httpServer := &http.Server{Handler: api.NewServer(svc.coordinator, svc.hub, logger.Named("api"))}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logger.Info("internal HTTP server started", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
