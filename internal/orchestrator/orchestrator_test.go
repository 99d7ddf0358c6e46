package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/wingman/internal/genai"
	"github.com/kalambet/wingman/internal/prompt"
	"github.com/kalambet/wingman/internal/recorder"
	"github.com/kalambet/wingman/internal/storage"
)

// mockGateway implements Gateway for testing.
type mockGateway struct {
	response string
	err      error
	calls    int
	lastReq  prompt.Compiled
}

func (m *mockGateway) Generate(ctx context.Context, req prompt.Compiled) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// memStore implements recorder.Store in memory.
type memStore struct {
	saved []storage.Interaction
}

func (m *memStore) SaveInteraction(i storage.Interaction) error {
	m.saved = append(m.saved, i)
	return nil
}

func (m *memStore) InteractionsSince(userID string, since time.Time) ([]storage.Interaction, error) {
	return nil, nil
}

func newTestOrchestrator(gw Gateway) (*Orchestrator, *memStore) {
	store := &memStore{}
	return New(gw, recorder.New(store)), store
}

var testUC = prompt.UserContext{Gender: prompt.GenderMale, Goal: prompt.GoalDating, Tone: prompt.ToneHumorous}
var testID = Identity{UserID: "user-1", TargetID: "target-1"}

func TestGenerateOpeners_Success(t *testing.T) {
	gw := &mockGateway{response: `{"openers":["a","b","c"]}`}
	o, store := newTestOrchestrator(gw)

	got, err := o.GenerateOpeners(context.Background(), testID, testUC, prompt.TargetProfile{Interests: "hiking"}, prompt.TopicHobbies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != "a" {
		t.Errorf("openers = %v", got)
	}

	if len(store.saved) != 1 {
		t.Fatalf("recorded %d interactions, want 1", len(store.saved))
	}
	rec := store.saved[0]
	if rec.Mode != storage.ModeStartTopic || rec.Conversation != "Category: hobbies" {
		t.Errorf("record = %+v", rec)
	}
	if rec.UserID != "user-1" || rec.TargetID != "target-1" || rec.Goal != "dating" {
		t.Errorf("record identity = %+v", rec)
	}
	if rec.ResultJSON != `["a","b","c"]` {
		t.Errorf("result_json = %s", rec.ResultJSON)
	}
}

func TestGenerateOpeners_MissingTopic(t *testing.T) {
	gw := &mockGateway{}
	o, store := newTestOrchestrator(gw)

	_, err := o.GenerateOpeners(context.Background(), testID, testUC, prompt.TargetProfile{}, "  ")

	var oe *OrchestrationError
	if !errors.As(err, &oe) || oe.Hint != HintInvalidInput {
		t.Fatalf("error = %v, want invalid-input OrchestrationError", err)
	}
	if !errors.Is(err, ErrMissingInput) {
		t.Error("error should wrap ErrMissingInput")
	}
	if gw.calls != 0 {
		t.Error("gateway must not be called when validation fails")
	}
	if len(store.saved) != 0 {
		t.Error("nothing must be recorded on validation failure")
	}
}

func TestGenerateOpeners_DecodeFailureNotRecorded(t *testing.T) {
	gw := &mockGateway{response: `{"openers":["only","two"]}`}
	o, store := newTestOrchestrator(gw)

	_, err := o.GenerateOpeners(context.Background(), testID, testUC, prompt.TargetProfile{}, prompt.TopicTravel)

	var oe *OrchestrationError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want OrchestrationError", err)
	}
	if oe.Hint != HintRetry {
		t.Errorf("hint = %s, want retry", oe.Hint)
	}
	// The sanitized message must not leak the raw model output.
	if strings.Contains(oe.Error(), "only") || strings.Contains(oe.Error(), "openers") {
		t.Errorf("message leaks model output or schema: %s", oe.Error())
	}
	if len(store.saved) != 0 {
		t.Error("failed decode must not be recorded")
	}
}

func TestGenerateOpeners_CancelledStreamNotRecorded(t *testing.T) {
	gw := &mockGateway{err: &genai.GatewayError{Kind: genai.KindCanceled, Err: context.Canceled}}
	o, store := newTestOrchestrator(gw)

	_, err := o.GenerateOpeners(context.Background(), testID, testUC, prompt.TargetProfile{}, prompt.TopicFunny)

	var oe *OrchestrationError
	if !errors.As(err, &oe) || oe.Hint != HintCanceled {
		t.Fatalf("error = %v, want canceled OrchestrationError", err)
	}
	if len(store.saved) != 0 {
		t.Error("cancelled call must not be recorded")
	}
}

func TestGatewayErrorHints(t *testing.T) {
	cases := []struct {
		kind genai.ErrKind
		want Hint
	}{
		{genai.KindAuth, HintCheckConfig},
		{genai.KindTimeout, HintRetry},
		{genai.KindTransport, HintRetry},
		{genai.KindCanceled, HintCanceled},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			gw := &mockGateway{err: &genai.GatewayError{Kind: tc.kind, Err: fmt.Errorf("boom")}}
			o, _ := newTestOrchestrator(gw)

			_, err := o.Transcreate(context.Background(), testUC, prompt.TargetProfile{}, "hello")

			var oe *OrchestrationError
			if !errors.As(err, &oe) {
				t.Fatalf("error = %v, want OrchestrationError", err)
			}
			if oe.Hint != tc.want {
				t.Errorf("hint = %s, want %s", oe.Hint, tc.want)
			}
		})
	}
}

func TestAnalyzeAndSuggestReply_Success(t *testing.T) {
	gw := &mockGateway{response: "```json\n" + `{"analysis":"對方語氣積極","suggestions":["x","y","z"]}` + "\n```"}
	o, store := newTestOrchestrator(gw)

	got, err := o.AnalyzeAndSuggestReply(context.Background(), testID, testUC, prompt.TargetProfile{}, "Them: 週末有空嗎?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Analysis != "對方語氣積極" || len(got.Suggestions) != 3 {
		t.Errorf("result = %+v", got)
	}
	if len(store.saved) != 1 || store.saved[0].Mode != storage.ModeGetReply {
		t.Errorf("recorded = %+v", store.saved)
	}
	if store.saved[0].Conversation != "Them: 週末有空嗎?" {
		t.Errorf("conversation snapshot = %q", store.saved[0].Conversation)
	}
}

func TestAnalyzeAndSuggestReply_MissingTranscript(t *testing.T) {
	o, _ := newTestOrchestrator(&mockGateway{})
	_, err := o.AnalyzeAndSuggestReply(context.Background(), testID, testUC, prompt.TargetProfile{}, "")
	if !errors.Is(err, ErrMissingInput) {
		t.Errorf("error = %v, want ErrMissingInput", err)
	}
}

func TestAnalyzeIntent_Success(t *testing.T) {
	gw := &mockGateway{response: `{"intent":"對你有好感","reasoning":"回覆快速且主動","confidence":82}`}
	o, store := newTestOrchestrator(gw)

	got, err := o.AnalyzeIntent(context.Background(), testID, "Them: 想你了", prompt.GenderMale, "Alex")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent != "對你有好感" || got.Confidence != 82 {
		t.Errorf("result = %+v", got)
	}
	if len(store.saved) != 1 {
		t.Fatalf("recorded %d, want 1", len(store.saved))
	}
	if store.saved[0].Mode != storage.ModeAnalyzeIntent || store.saved[0].Goal != "friendship" {
		t.Errorf("record = %+v", store.saved[0])
	}
}

func TestAnalyzeIntent_ConfidenceOutOfRange(t *testing.T) {
	gw := &mockGateway{response: `{"intent":"不明確","reasoning":"r","confidence":150}`}
	o, store := newTestOrchestrator(gw)

	_, err := o.AnalyzeIntent(context.Background(), testID, "Them: hi", prompt.GenderFemale, "Sam")
	if err == nil {
		t.Fatal("expected decode failure for confidence=150")
	}
	if len(store.saved) != 0 {
		t.Error("invalid payload must not be recorded")
	}
}

func TestTranscreate_NotRecorded(t *testing.T) {
	gw := &mockGateway{response: `{"translation":"改天一起喝咖啡吧"}`}
	o, store := newTestOrchestrator(gw)

	got, err := o.Transcreate(context.Background(), testUC, prompt.TargetProfile{}, "let's grab coffee sometime")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "改天一起喝咖啡吧" {
		t.Errorf("translation = %q", got)
	}
	if len(store.saved) != 0 {
		t.Error("transcreations must not be recorded")
	}
}

func TestTranscreateBatch_PreservesOrder(t *testing.T) {
	// Gateway echoes the text it finds in the task so order is checkable.
	gw := &echoGateway{}
	o, _ := newTestOrchestrator(gw)

	texts := []string{"one", "two", "three", "four", "five"}
	got, err := o.TranscreateBatch(context.Background(), testUC, prompt.TargetProfile{}, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, text := range texts {
		if got[i] != "t:"+text {
			t.Errorf("result[%d] = %q, want %q", i, got[i], "t:"+text)
		}
	}
}

func TestTranscreateBatch_FirstFailureAborts(t *testing.T) {
	gw := &echoGateway{failOn: "three"}
	o, _ := newTestOrchestrator(gw)

	_, err := o.TranscreateBatch(context.Background(), testUC, prompt.TargetProfile{}, []string{"one", "two", "three"})
	if err == nil {
		t.Fatal("expected batch failure")
	}
}

// echoGateway replies with a translation derived from the task text.
type echoGateway struct {
	failOn string
}

func (g *echoGateway) Generate(ctx context.Context, req prompt.Compiled) (string, error) {
	start := strings.Index(req.Task, "Text to Transcreate:\n")
	rest := req.Task[start+len("Text to Transcreate:\n"):]
	text := rest[:strings.Index(rest, "\n")]
	if g.failOn != "" && text == g.failOn {
		return "", &genai.GatewayError{Kind: genai.KindTransport, Err: fmt.Errorf("boom")}
	}
	return fmt.Sprintf(`{"translation":"t:%s"}`, text), nil
}
