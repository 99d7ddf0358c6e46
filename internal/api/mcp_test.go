package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/wingman/internal/orchestrator"
	"github.com/kalambet/wingman/internal/recorder"
	"github.com/kalambet/wingman/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T, gw orchestrator.Gateway) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{
		Orchestrator: orchestrator.New(gw, recorder.New(store)),
	}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestMCPTool_GenerateOpeners(t *testing.T) {
	gw := &stubGateway{response: `{"openers":["a","b","c"]}`}
	deps, store := newTestMCPDeps(t, gw)
	handler := mcpGenerateOpeners(deps)

	req := makeCallToolRequest("generate_openers", map[string]interface{}{
		"gender":  "male",
		"goal":    "dating",
		"topic":   "hobbies",
		"profile": `{"interests":"hiking"}`,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp struct {
		Openers []string `json:"openers"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Openers) != 3 {
		t.Fatalf("openers = %v", resp.Openers)
	}

	// Interactions made through MCP are attributed to the mcp caller.
	recs, err := store.InteractionsSince("mcp", time.Time{})
	if err != nil {
		t.Fatalf("InteractionsSince failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Mode != storage.ModeStartTopic {
		t.Fatalf("recorded = %+v", recs)
	}
}

func TestMCPTool_GenerateOpeners_MissingTopic(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubGateway{})
	handler := mcpGenerateOpeners(deps)

	req := makeCallToolRequest("generate_openers", map[string]interface{}{
		"gender": "male",
		"goal":   "dating",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing topic")
	}
}

func TestMCPTool_GenerateOpeners_BadProfileJSON(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubGateway{})
	handler := mcpGenerateOpeners(deps)

	req := makeCallToolRequest("generate_openers", map[string]interface{}{
		"gender":  "male",
		"goal":    "dating",
		"topic":   "food",
		"profile": `{not json`,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for invalid profile JSON")
	}
}

func TestMCPTool_SuggestReply(t *testing.T) {
	gw := &stubGateway{response: `{"analysis":"輕鬆","suggestions":["x","y","z"]}`}
	deps, _ := newTestMCPDeps(t, gw)
	handler := mcpSuggestReply(deps)

	req := makeCallToolRequest("suggest_reply", map[string]interface{}{
		"gender":       "female",
		"goal":         "friendship",
		"conversation": "Them: hi\nYou: hey",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp orchestrator.AnalysisResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Analysis != "輕鬆" || len(resp.Suggestions) != 3 {
		t.Fatalf("result = %+v", resp)
	}
}

func TestMCPTool_AnalyzeIntent(t *testing.T) {
	gw := &stubGateway{response: `{"intent":"純友誼","reasoning":"r","confidence":55}`}
	deps, _ := newTestMCPDeps(t, gw)
	handler := mcpAnalyzeIntent(deps)

	req := makeCallToolRequest("analyze_intent", map[string]interface{}{
		"gender":       "male",
		"conversation": "Them: 週末要不要一起打球",
		"target_name":  "Alex",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp orchestrator.IntentResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Intent != "純友誼" || resp.Confidence != 55 {
		t.Fatalf("result = %+v", resp)
	}
}

func TestMCPTool_Transcreate(t *testing.T) {
	gw := &stubGateway{response: `{"translation":"改天見"}`}
	deps, store := newTestMCPDeps(t, gw)
	handler := mcpTranscreate(deps)

	req := makeCallToolRequest("transcreate", map[string]interface{}{
		"gender": "male",
		"goal":   "casual",
		"text":   "see you around",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if toolText(t, result) != "改天見" {
		t.Fatalf("translation = %q", toolText(t, result))
	}

	recs, err := store.InteractionsSince("mcp", time.Time{})
	if err != nil {
		t.Fatalf("InteractionsSince failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatal("transcreations must not be recorded")
	}
}

func TestMCPTool_GatewayFailureIsToolError(t *testing.T) {
	gw := &stubGateway{response: `not json at all`}
	deps, _ := newTestMCPDeps(t, gw)
	handler := mcpTranscreate(deps)

	req := makeCallToolRequest("transcreate", map[string]interface{}{
		"gender": "male",
		"goal":   "casual",
		"text":   "hello",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when the model output is unusable")
	}
}
