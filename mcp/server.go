// Package mcp serves the Ollama nodes to MCP clients over stdio.
//
// Four task-level tools cover the common steps (listing, loading, unloading
// and chatting). Every registered node is also exposed as a generic tool
// named node_<NodeName>, described from its spec.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ollamanodes/model"
	"ollamanodes/nodes"
)

const serverName = "ollama-nodes"

// Server exposes an executor's nodes as MCP tools.
type Server struct {
	executor        *nodes.Executor
	defaultEndpoint string
	mcpServer       *server.MCPServer
	tools           []string
}

func NewServer(executor *nodes.Executor, version, defaultEndpoint string) *Server {
	s := &Server{
		executor:        executor,
		defaultEndpoint: defaultEndpoint,
		mcpServer: server.NewMCPServer(serverName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerNodeTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Tools returns the names of every registered tool, sorted.
func (s *Server) Tools() []string {
	out := append([]string(nil), s.tools...)
	sort.Strings(out)
	return out
}

func (s *Server) addTool(tool mcptypes.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) registerTools() {
	s.addTool(mcptypes.NewTool("ollama_list_models",
		mcptypes.WithDescription("Refresh and list the models installed on an Ollama daemon."),
		mcptypes.WithString("endpoint", mcptypes.Description("Ollama endpoint URL (optional)")),
	), s.handleListModels)

	s.addTool(mcptypes.NewTool("ollama_load_model",
		mcptypes.WithDescription("Load a model into Ollama's memory."),
		mcptypes.WithString("model", mcptypes.Required(), mcptypes.Description("Model name, e.g. llama3.1:8b")),
		mcptypes.WithString("endpoint", mcptypes.Description("Ollama endpoint URL (optional)")),
		mcptypes.WithString("keep_alive", mcptypes.Description("How long the model stays loaded: -1 forever, 5m, 0 to unload at once")),
	), s.handleLoadModel)

	s.addTool(mcptypes.NewTool("ollama_unload_model",
		mcptypes.WithDescription("Unload a model from Ollama's memory."),
		mcptypes.WithString("model", mcptypes.Required(), mcptypes.Description("Model name")),
		mcptypes.WithString("endpoint", mcptypes.Description("Ollama endpoint URL (optional)")),
	), s.handleUnloadModel)

	s.addTool(mcptypes.NewTool("ollama_chat",
		mcptypes.WithDescription("Run one chat step. Pass history to continue a saved conversation and save_as to store the result."),
		mcptypes.WithString("model", mcptypes.Required(), mcptypes.Description("Model name")),
		mcptypes.WithString("prompt", mcptypes.Required(), mcptypes.Description("User message")),
		mcptypes.WithString("endpoint", mcptypes.Description("Ollama endpoint URL (optional)")),
		mcptypes.WithString("system_prompt", mcptypes.Description("System instructions, used only when starting a conversation")),
		mcptypes.WithString("history", mcptypes.Description("Name or id of a saved history to continue")),
		mcptypes.WithString("save_as", mcptypes.Description("Save the resulting history under this name")),
		mcptypes.WithString("format", mcptypes.Description("none, json, or a JSON schema object")),
		mcptypes.WithNumber("temperature", mcptypes.Description("Sampling temperature, 0 to 2")),
		mcptypes.WithNumber("seed", mcptypes.Description("Seed for reproducible output")),
		mcptypes.WithNumber("max_tokens", mcptypes.Description("Maximum tokens to generate")),
		mcptypes.WithString("extra_body", mcptypes.Description("Additional Ollama options as a JSON object")),
	), s.handleChat)
}

func (s *Server) registerNodeTools() {
	for _, spec := range s.executor.Registry().Specs() {
		s.addTool(ConvertSpecToTool(spec), func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
			return s.runNode(ctx, spec, req.GetArguments())
		})
	}
}

func (s *Server) endpoint(req mcptypes.CallToolRequest) string {
	if e := strings.TrimSpace(req.GetString("endpoint", "")); e != "" {
		return e
	}
	return s.defaultEndpoint
}

func (s *Server) handleListModels(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	res, err := s.executor.Run(ctx, "OllamaRefreshModelList", nodes.Inputs{"endpoint": s.endpoint(req)})
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}
	return mcptypes.NewToolResultText(res.String("models_display")), nil
}

func (s *Server) handleLoadModel(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	in := nodes.Inputs{
		"endpoint": s.endpoint(req),
		"model":    req.GetString("model", ""),
	}
	if ka := req.GetString("keep_alive", ""); ka != "" {
		in["keep_alive"] = ka
	}
	res, err := s.executor.Run(ctx, "OllamaLoadSelectedModel", in)
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}
	return mcptypes.NewToolResultText(res.String("result")), nil
}

func (s *Server) handleUnloadModel(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	res, err := s.executor.Run(ctx, "OllamaUnloadSelectedModel", nodes.Inputs{
		"endpoint": s.endpoint(req),
		"model":    req.GetString("model", ""),
	})
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}
	return mcptypes.NewToolResultText(res.String("result")), nil
}

func (s *Server) handleChat(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	args := req.GetArguments()

	values := map[string]float64{}
	for arg, key := range map[string]string{
		"temperature": model.OptTemperature,
		"seed":        model.OptSeed,
		"max_tokens":  model.OptNumPredict,
	} {
		if _, ok := args[arg]; ok {
			values[key] = req.GetFloat(arg, 0)
		}
	}
	opts, err := nodes.RunOptionChain(ctx, s.executor, values, req.GetString("extra_body", ""))
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}

	in := nodes.Inputs{
		"client":        s.endpoint(req),
		"model":         req.GetString("model", ""),
		"prompt":        req.GetString("prompt", ""),
		"system_prompt": req.GetString("system_prompt", ""),
		"options":       opts,
	}
	if f := req.GetString("format", ""); f != "" {
		in["format"] = f
	}

	if ref := req.GetString("history", ""); ref != "" {
		loaded, err := s.executor.Run(ctx, "OllamaLoadHistory", nodes.Inputs{"name": ref})
		if err != nil {
			return mcptypes.NewToolResultError(err.Error()), nil
		}
		in["history"] = loaded.Outputs["history"]
	}

	reply, history, err := nodes.ChatOnce(ctx, s.executor, in)
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}

	if name := req.GetString("save_as", ""); name != "" {
		if _, err := s.executor.Run(ctx, "OllamaSaveHistory", nodes.Inputs{"name": name, "history": history}); err != nil {
			return mcptypes.NewToolResultError(fmt.Sprintf("reply generated but not saved: %v", err)), nil
		}
	}
	return mcptypes.NewToolResultText(reply), nil
}

func (s *Server) runNode(ctx context.Context, spec nodes.Spec, args map[string]any) (*mcptypes.CallToolResult, error) {
	in, err := ConvertToolArgs(spec, args)
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}
	res, err := s.executor.Run(ctx, spec.Name, in)
	if err != nil {
		return mcptypes.NewToolResultError(err.Error()), nil
	}

	if len(res.Text) > 0 {
		return mcptypes.NewToolResultText(strings.Join(res.Text, "\n")), nil
	}
	data, err := json.MarshalIndent(res.Outputs, "", "  ")
	if err != nil {
		return mcptypes.NewToolResultError(fmt.Sprintf("failed to encode outputs: %v", err)), nil
	}
	return mcptypes.NewToolResultText(string(data)), nil
}
