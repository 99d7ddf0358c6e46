// Package orchestrator is the façade over the compile → invoke →
// decode → record pipeline. Its four operations are the only entry
// points the presentation layer consumes.
package orchestrator

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/wingman/internal/decode"
	"github.com/kalambet/wingman/internal/prompt"
	"github.com/kalambet/wingman/internal/recorder"
	"github.com/kalambet/wingman/internal/storage"
)

// batchParallelism bounds concurrent gateway calls during batch
// transcreation.
const batchParallelism = 4

// Gateway abstracts the generative-model provider. The transport mode
// (sync or streamed) is fixed at construction time and invisible here.
type Gateway interface {
	Generate(ctx context.Context, req prompt.Compiled) (string, error)
}

// Identity names the user and target a call is made on behalf of.
// Identity is always explicit: the orchestrator reads no ambient
// session state.
type Identity struct {
	UserID   string
	TargetID string
}

// AnalysisResult is the outcome of AnalyzeAndSuggestReply.
type AnalysisResult struct {
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

// IntentResult is the outcome of AnalyzeIntent. Confidence is an
// integer in [0,100], guaranteed by the decoder.
type IntentResult struct {
	Intent     string `json:"intent"`
	Reasoning  string `json:"reasoning"`
	Confidence int    `json:"confidence"`
}

// Orchestrator wires the prompt compiler, model gateway, response
// decoder, and interaction recorder into single-shot operations. Calls
// are independent and safe to issue concurrently.
type Orchestrator struct {
	gw  Gateway
	rec *recorder.Recorder
}

// New creates an Orchestrator.
func New(gw Gateway, rec *recorder.Recorder) *Orchestrator {
	return &Orchestrator{gw: gw, rec: rec}
}

// run executes the invoke and decode stages and unmarshals the
// validated payload into out. A failure in either stage aborts the call
// before anything is recorded.
func (o *Orchestrator) run(ctx context.Context, op string, compiled prompt.Compiled, out any) error {
	raw, err := o.gw.Generate(ctx, compiled)
	if err != nil {
		return wrapGateway(op, err)
	}

	clean, err := decode.Decode(raw, compiled.Schema)
	if err != nil {
		return wrapDecode(op, err)
	}

	if err := json.Unmarshal(clean, out); err != nil {
		return wrapDecode(op, err)
	}
	return nil
}

// GenerateOpeners produces exactly three conversation openers for the
// topic category and records the exchange.
func (o *Orchestrator) GenerateOpeners(ctx context.Context, id Identity, uc prompt.UserContext, profile prompt.TargetProfile, topic prompt.TopicCategory) ([]string, error) {
	const op = "generate-openers"
	if strings.TrimSpace(string(topic)) == "" {
		return nil, invalidInput(op, "a topic category is required")
	}
	if !uc.Valid() {
		return nil, invalidInput(op, "gender and goal are required")
	}

	compiled := prompt.CompileOpeners(uc, profile, topic)

	var out struct {
		Openers []string `json:"openers"`
	}
	if err := o.run(ctx, op, compiled, &out); err != nil {
		return nil, err
	}

	o.rec.Record(recorder.Input{
		UserID:       id.UserID,
		TargetID:     id.TargetID,
		Goal:         string(uc.Goal),
		Mode:         storage.ModeStartTopic,
		Conversation: "Category: " + string(topic),
		Result:       out.Openers,
	})
	return out.Openers, nil
}

// AnalyzeAndSuggestReply produces a strategic analysis of the
// conversation plus exactly three reply suggestions and records the
// exchange.
func (o *Orchestrator) AnalyzeAndSuggestReply(ctx context.Context, id Identity, uc prompt.UserContext, profile prompt.TargetProfile, transcript string) (AnalysisResult, error) {
	const op = "analyze-and-suggest"
	if strings.TrimSpace(transcript) == "" {
		return AnalysisResult{}, invalidInput(op, "a conversation transcript is required")
	}
	if !uc.Valid() {
		return AnalysisResult{}, invalidInput(op, "gender and goal are required")
	}

	compiled := prompt.CompileSuggestReply(uc, profile, transcript)

	var out AnalysisResult
	if err := o.run(ctx, op, compiled, &out); err != nil {
		return AnalysisResult{}, err
	}

	o.rec.Record(recorder.Input{
		UserID:       id.UserID,
		TargetID:     id.TargetID,
		Goal:         string(uc.Goal),
		Mode:         storage.ModeGetReply,
		Conversation: transcript,
		Result:       out,
	})
	return out, nil
}

// AnalyzeIntent assesses the target's intent from the closed category
// set and records the exchange. Intent analysis carries no goal of its
// own; the recorded goal defaults to friendship.
func (o *Orchestrator) AnalyzeIntent(ctx context.Context, id Identity, transcript string, userGender prompt.Gender, targetName string) (IntentResult, error) {
	const op = "analyze-intent"
	if strings.TrimSpace(transcript) == "" {
		return IntentResult{}, invalidInput(op, "a conversation transcript is required")
	}

	compiled := prompt.CompileIntent(transcript, userGender, targetName)

	var out IntentResult
	if err := o.run(ctx, op, compiled, &out); err != nil {
		return IntentResult{}, err
	}

	o.rec.Record(recorder.Input{
		UserID:       id.UserID,
		TargetID:     id.TargetID,
		Goal:         string(prompt.GoalFriendship),
		Mode:         storage.ModeAnalyzeIntent,
		Conversation: transcript,
		Result:       out,
	})
	return out, nil
}

// Transcreate adapts the text into the complementary language
// (Chinese↔English), preserving intent and tone. Transcreations are
// not audited interaction modes and are never recorded.
func (o *Orchestrator) Transcreate(ctx context.Context, uc prompt.UserContext, profile prompt.TargetProfile, text string) (string, error) {
	const op = "transcreate"
	if strings.TrimSpace(text) == "" {
		return "", invalidInput(op, "text to transcreate is required")
	}
	if !uc.Valid() {
		return "", invalidInput(op, "gender and goal are required")
	}

	compiled := prompt.CompileTranscreate(uc, profile, text)

	var out struct {
		Translation string `json:"translation"`
	}
	if err := o.run(ctx, op, compiled, &out); err != nil {
		return "", err
	}
	return out.Translation, nil
}

// TranscreateBatch transcreates several texts concurrently, preserving
// input order. Each text owns its own request lifecycle; the first
// failure cancels the remaining calls.
func (o *Orchestrator) TranscreateBatch(ctx context.Context, uc prompt.UserContext, profile prompt.TargetProfile, texts []string) ([]string, error) {
	results := make([]string, len(texts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for i, text := range texts {
		g.Go(func() error {
			translated, err := o.Transcreate(gCtx, uc, profile, text)
			if err != nil {
				return err
			}
			results[i] = translated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
