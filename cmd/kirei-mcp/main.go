package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/services/unified"
)

func newMCPServer(svc interfaces.UnifiedService, logger arbor.ILogger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"kirei",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createListIssuesTool(), handleListIssues(svc, logger))
	mcpServer.AddTool(createCreateIssueTool(), handleCreateIssue(svc, logger))
	mcpServer.AddTool(createListProjectsTool(), handleListProjects(svc, logger))
	mcpServer.AddTool(createListTasksTool(), handleListTasks(svc, logger))
	mcpServer.AddTool(createCreateTaskTool(), handleCreateTask(svc, logger))
	mcpServer.AddTool(createMoveTaskTool(), handleMoveTask(svc, logger))

	return mcpServer
}

func main() {
	configPath, err := common.DefaultConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve config path: %v\n", err)
		os.Exit(1)
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs only go to the file
	config.Logging.Output = []string{"file"}
	logger := common.InitLogger(config)

	svc := unified.NewService(config, configPath, logger)

	logger.Info().Str("config_path", configPath).Msg("Starting MCP server on stdio")

	// Blocks on stdio
	if err := server.ServeStdio(newMCPServer(svc, logger)); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		fmt.Fprintf(os.Stderr, "MCP server failed: %v\n", err)
		os.Exit(1)
	}
}
