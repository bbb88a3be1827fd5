package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"playchat/internal/browser"
	"playchat/internal/chat"
	"playchat/internal/config"
	"playchat/internal/mcp"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "playchat",
		Short:         "Chat-driven browser automation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the playchat config file")

	root.AddCommand(newChatCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newVersionCmd(&configPath))
	return root
}

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat REPL driving the browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl := browser.NewController(cfg.Browser)
			defer func() {
				// The REPL shuts down on /shutdown; this covers ^C and EOF.
				_, _ = ctrl.Shutdown(context.Background())
			}()

			repl := chat.NewREPL(ctrl, chat.NewClassifier(cfg.LLM), os.Stdout)
			err = repl.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	var ssePort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the browser operations as MCP tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if ssePort != 0 {
				cfg.MCP.SSEPort = ssePort
			}

			// Redirect logging to a file in stdio mode: stdout carries the
			// MCP protocol and stderr pollutes clients.
			if cfg.MCP.SSEPort == 0 && cfg.Server.LogFile != "" {
				logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err == nil {
					log.SetOutput(logFile)
					defer logFile.Close()
				} else {
					log.SetOutput(io.Discard)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl := browser.NewController(cfg.Browser)
			defer func() {
				_, _ = ctrl.Shutdown(context.Background())
			}()

			server, err := mcp.NewServer(cfg, ctrl)
			if err != nil {
				return fmt.Errorf("init MCP server: %w", err)
			}

			var startErr error
			if cfg.MCP.SSEPort > 0 {
				log.Printf("starting playchat MCP SSE server on port %d", cfg.MCP.SSEPort)
				startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
			} else {
				log.Printf("starting playchat MCP stdio server")
				startErr = server.Start(ctx)
			}
			if startErr != nil && !errors.Is(startErr, context.Canceled) {
				return startErr
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&ssePort, "sse-port", 0, "Optional SSE port override (falls back to config)")
	return cmd
}

func newVersionCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the playchat version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cfg.Server.Name, cfg.Server.Version)
			return nil
		},
	}
}
