// intercom-mcp — MCP server for Intercom Help Center articles and collections
//
// Usage:
//
//	intercom-mcp serve     # serve MCP over stdio (default)
//	intercom-mcp http      # serve MCP over HTTP/SSE
//	intercom-mcp tools     # list the available tools
//	intercom-mcp version   # show version
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/intercom-mcp/internal/config"
	"github.com/RobinCoderZhao/intercom-mcp/internal/helpcenter"
	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
	"github.com/RobinCoderZhao/intercom-mcp/pkg/mcpserver"
)

const serverName = "intercom-articles-mcp"

var version = "0.4.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "intercom-mcp",
		Short:         "MCP server for Intercom Help Center articles and collections",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.FileName+" or ~/"+config.FileName+")")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(httpCmd(&configPath))
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		stop()
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context(), *configPath)
		},
	}
}

func httpCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over HTTP with SSE responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTP(cmd.Context(), *configPath, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.http_addr)")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Run: func(cmd *cobra.Command, args []string) {
			printTools(cmd.OutOrStdout(), helpcenter.NewService(nil, nil).Tools())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serverName, version)
		},
	}
}

func runStdio(ctx context.Context, configPath string) error {
	srv, _, err := setup(configPath)
	if err != nil {
		return err
	}
	return srv.RunStdio(ctx)
}

func runHTTP(ctx context.Context, configPath, addr string) error {
	srv, cfg, err := setup(configPath)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.HTTPAddr
	}
	srv.SetHTTPAuthSecret(cfg.Server.JWTSecret)
	return srv.RunHTTP(ctx, addr)
}

// setup loads configuration and builds a server with every tool
// registered. Logs go to stderr; stdout carries the protocol.
func setup(configPath string) (*mcpserver.Server, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, cfg, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	client, err := intercom.NewClient(cfg.Intercom)
	if err != nil {
		return nil, cfg, fmt.Errorf("create Intercom client: %w", err)
	}
	client.SetLogger(logger)

	srv := mcpserver.New(serverName, version)
	srv.SetLogger(logger)
	srv.Use(mcpserver.RecoveryMiddleware(logger))
	srv.Use(mcpserver.LoggingMiddleware(logger))

	svc := helpcenter.NewService(client, logger)
	svc.Register(srv)

	names := make([]string, 0, len(srv.Tools()))
	for _, t := range srv.Tools() {
		names = append(names, t.Name)
	}
	logger.Info("Intercom Articles MCP server ready",
		"version", version,
		"api_version", cfg.Intercom.Version,
		"tools", strings.Join(names, ","))

	return srv, cfg, nil
}

func printTools(w io.Writer, tools []*helpcenter.Tool) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	var category string
	for i, t := range tools {
		if i == 0 || t.ToolCategory() != category {
			if i > 0 {
				fmt.Fprintln(w)
			}
			category = t.ToolCategory()
			cyan.Fprintf(w, "%s\n", category)
		}
		green.Fprintf(w, "  %-20s", t.Name())
		fmt.Fprintf(w, " %s\n", firstLine(t.Description()))
		if req := t.InputSchema().Required; len(req) > 0 {
			fmt.Fprintf(w, "  %-20s required: %s\n", "", strings.Join(req, ", "))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
