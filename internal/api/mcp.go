package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/wingman/internal/orchestrator"
	"github.com/kalambet/wingman/internal/prompt"
)

// mcpCallerID identifies interactions created through the MCP surface
// when the host does not supply user/target identifiers.
const mcpCallerID = "mcp"

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Orchestrator *orchestrator.Orchestrator
}

// NewMCPServer creates an MCP server exposing the conversation
// assistant operations as tools for agent hosts.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"wingman",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("wingman — AI conversation strategist: openers, reply suggestions, intent analysis, and transcreation."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_openers",
			mcp.WithDescription("Generate three conversation openers for a topic category, personalized to the target's profile."),
			mcp.WithString("gender", mcp.Description("User gender: male or female"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Relationship goal: friendship, dating, flirting, casual, or business"), mcp.Required()),
			mcp.WithString("topic", mcp.Description("Topic category: hobbies, travel, food, work, deep, or funny"), mcp.Required()),
			mcp.WithString("tone", mcp.Description("Optional tone: formal, flirty, humorous, direct, or gentle")),
			mcp.WithString("profile", mcp.Description("Optional target profile as a JSON object (nationality, age, education, job, bodyType, religion, diet, interests)")),
		),
		mcpGenerateOpeners(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_reply",
			mcp.WithDescription("Analyze a conversation and suggest three replies aligned with the user's goal."),
			mcp.WithString("gender", mcp.Description("User gender: male or female"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Relationship goal"), mcp.Required()),
			mcp.WithString("conversation", mcp.Description("The conversation transcript; the user's lines are marked 'You'"), mcp.Required()),
			mcp.WithString("tone", mcp.Description("Optional tone")),
			mcp.WithString("profile", mcp.Description("Optional target profile as a JSON object")),
		),
		mcpSuggestReply(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_intent",
			mcp.WithDescription("Assess the other party's intent from a conversation, with reasoning and a 0-100 confidence score."),
			mcp.WithString("gender", mcp.Description("User gender: male or female"), mcp.Required()),
			mcp.WithString("conversation", mcp.Description("The conversation transcript"), mcp.Required()),
			mcp.WithString("target_name", mcp.Description("Optional name of the other party")),
		),
		mcpAnalyzeIntent(deps),
	)

	s.AddTool(
		mcp.NewTool("transcreate",
			mcp.WithDescription("Transcreate text between English and Traditional Chinese, preserving tone and intent rather than translating literally."),
			mcp.WithString("gender", mcp.Description("User gender: male or female"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Relationship goal"), mcp.Required()),
			mcp.WithString("text", mcp.Description("The text to transcreate"), mcp.Required()),
			mcp.WithString("profile", mcp.Description("Optional target profile as a JSON object")),
		),
		mcpTranscreate(deps),
	)

	return s
}

func mcpUserContext(req mcp.CallToolRequest) (prompt.UserContext, prompt.TargetProfile, error) {
	gender, err := req.RequireString("gender")
	if err != nil {
		return prompt.UserContext{}, prompt.TargetProfile{}, fmt.Errorf("gender is required")
	}
	goal := req.GetString("goal", string(prompt.GoalFriendship))

	uc := prompt.UserContext{
		Gender: prompt.Gender(gender),
		Goal:   prompt.Goal(goal),
		Tone:   prompt.Tone(req.GetString("tone", "")),
	}

	var profile prompt.TargetProfile
	if raw := req.GetString("profile", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return uc, profile, fmt.Errorf("invalid profile JSON: %v", err)
		}
	}
	return uc, profile, nil
}

func mcpGenerateOpeners(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uc, profile, err := mcpUserContext(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		topic, err := req.RequireString("topic")
		if err != nil {
			return mcpError("topic is required"), nil
		}

		openers, err := deps.Orchestrator.GenerateOpeners(ctx,
			orchestrator.Identity{UserID: mcpCallerID, TargetID: mcpCallerID},
			uc, profile, prompt.TopicCategory(topic))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(map[string]any{"openers": openers})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSuggestReply(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uc, profile, err := mcpUserContext(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		conversation, err := req.RequireString("conversation")
		if err != nil {
			return mcpError("conversation is required"), nil
		}

		result, err := deps.Orchestrator.AnalyzeAndSuggestReply(ctx,
			orchestrator.Identity{UserID: mcpCallerID, TargetID: mcpCallerID},
			uc, profile, conversation)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAnalyzeIntent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		gender, err := req.RequireString("gender")
		if err != nil {
			return mcpError("gender is required"), nil
		}
		conversation, err := req.RequireString("conversation")
		if err != nil {
			return mcpError("conversation is required"), nil
		}
		targetName := req.GetString("target_name", "the other party")

		result, err := deps.Orchestrator.AnalyzeIntent(ctx,
			orchestrator.Identity{UserID: mcpCallerID, TargetID: mcpCallerID},
			conversation, prompt.Gender(gender), targetName)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpTranscreate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uc, profile, err := mcpUserContext(req)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		translation, err := deps.Orchestrator.Transcreate(ctx, uc, profile, text)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(translation), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
