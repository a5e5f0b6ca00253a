package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/mcp"

	"github.com/urfave/cli/v2"
)

const mcpShutdownTimeout = 2 * time.Second

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol; nothing else may write to it
	debug.SetMCPMode(true)

	cfg, err := loadConfig(c, ".")
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitError)
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create MCP server: %v", err), exitError)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		debug.LogMCP("Starting MCP server with stdio transport...")
		errChan <- server.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			return cli.Exit(fmt.Sprintf("MCP server error: %v", err), exitError)
		}
		return nil

	case sig := <-sigChan:
		debug.LogMCP("Received %v, shutting down", sig)
		cancel()

		shutdownTimer := time.NewTimer(mcpShutdownTimeout)
		defer shutdownTimer.Stop()
		select {
		case <-errChan:
		case <-shutdownTimer.C:
			fmt.Fprintln(c.App.ErrWriter, "lgrep: MCP server did not stop in time")
		}
		return nil
	}
}
