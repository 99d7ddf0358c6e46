package prompt

import (
	"strings"
	"testing"
)

func TestProfileLine_SkipsBlankFields(t *testing.T) {
	p := TargetProfile{
		Nationality: "  ",
		Age:         "",
		Interests:   "hiking",
	}
	got := p.Line()
	if got != "interests: hiking" {
		t.Errorf("Line() = %q, want %q", got, "interests: hiking")
	}
}

func TestProfileLine_Empty(t *testing.T) {
	got := TargetProfile{}.Line()
	if got != "Not specified" {
		t.Errorf("Line() = %q, want 'Not specified'", got)
	}
}

func TestProfileLine_FixedOrder(t *testing.T) {
	p := TargetProfile{Interests: "music", Nationality: "Japanese", Job: "designer"}
	got := p.Line()
	want := "nationality: Japanese, job: designer, interests: music"
	if got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestCompileOpeners_MentionsOnlySetProfileFields(t *testing.T) {
	uc := UserContext{Gender: GenderMale, Goal: GoalDating, Tone: ToneHumorous}
	p := TargetProfile{Interests: "hiking"}

	c := CompileOpeners(uc, p, TopicHobbies)

	if !strings.Contains(c.System, "hiking") {
		t.Errorf("system instruction missing interest: %s", c.System)
	}
	for _, label := range []string{"nationality:", "age:", "education:", "job:", "bodyType:", "religion:", "diet:"} {
		if strings.Contains(c.System, label) {
			t.Errorf("system instruction mentions unset field %q: %s", label, c.System)
		}
	}
	if !strings.Contains(c.Task, "'hobbies'") {
		t.Errorf("task missing topic category: %s", c.Task)
	}

	f, ok := c.Schema.Field("openers")
	if !ok {
		t.Fatal("schema missing openers field")
	}
	if f.Type != TypeStringArray || f.Count != 3 {
		t.Errorf("openers field = %+v, want array of exactly 3 strings", f)
	}
}

func TestCompileOpeners_Deterministic(t *testing.T) {
	uc := UserContext{Gender: GenderFemale, Goal: GoalFlirting, Tone: ToneFlirty}
	p := TargetProfile{Job: "chef", Diet: "vegetarian"}

	a := CompileOpeners(uc, p, TopicFood)
	b := CompileOpeners(uc, p, TopicFood)

	if a.System != b.System || a.Task != b.Task {
		t.Error("identical inputs produced different instruction text")
	}
	if string(a.Schema.MarshalGenAI()) != string(b.Schema.MarshalGenAI()) {
		t.Error("identical inputs produced different schema rendering")
	}
}

func TestCompileSuggestReply_SchemaAndToneDirective(t *testing.T) {
	uc := UserContext{Gender: GenderMale, Goal: GoalDating, Tone: ToneGentle}
	c := CompileSuggestReply(uc, TargetProfile{}, "Them: hi\nYou: hello")

	if !strings.Contains(c.System, "gentle and considerate") {
		t.Errorf("system instruction missing tone phrase: %s", c.System)
	}
	if !strings.Contains(c.Task, "Them: hi") {
		t.Errorf("task missing transcript: %s", c.Task)
	}
	if !strings.Contains(c.Task, "same language as the conversation") {
		t.Errorf("task missing language-matching directive: %s", c.Task)
	}
	if _, ok := c.Schema.Field("analysis"); !ok {
		t.Error("schema missing analysis field")
	}
	f, _ := c.Schema.Field("suggestions")
	if f.Count != 3 {
		t.Errorf("suggestions count = %d, want 3", f.Count)
	}
}

func TestCompileIntent_NeutralPersona(t *testing.T) {
	c := CompileIntent("Them: see you", GenderFemale, "Alex")

	if strings.Contains(c.System, "goal") {
		t.Errorf("intent analysis must not carry a goal: %s", c.System)
	}
	if !strings.Contains(c.System, "Target (Alex)") {
		t.Errorf("system instruction missing target name: %s", c.System)
	}
	for _, label := range IntentLabels {
		if !strings.Contains(c.Task, label) {
			t.Errorf("task missing intent label %q", label)
		}
	}

	f, ok := c.Schema.Field("confidence")
	if !ok {
		t.Fatal("schema missing confidence field")
	}
	if f.Type != TypeInteger || !f.Bounded || f.Min != 0 || f.Max != 100 {
		t.Errorf("confidence field = %+v, want bounded integer [0,100]", f)
	}
}

func TestCompileTranscreate_DropsTone(t *testing.T) {
	uc := UserContext{Gender: GenderMale, Goal: GoalBusiness, Tone: ToneFlirty}
	c := CompileTranscreate(uc, TargetProfile{}, "let's grab coffee sometime")

	if strings.Contains(c.System, "flirty") {
		t.Errorf("transcreation must not carry a tone directive: %s", c.System)
	}
	if !strings.Contains(c.Task, "let's grab coffee sometime") {
		t.Errorf("task missing source text: %s", c.Task)
	}
	if _, ok := c.Schema.Field("translation"); !ok {
		t.Error("schema missing translation field")
	}
}

func TestMarshalGenAI(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "intent", Type: TypeString},
		{Name: "suggestions", Type: TypeStringArray, Count: 3},
		{Name: "confidence", Type: TypeInteger, Bounded: true, Min: 0, Max: 100},
	}}
	got := string(s.MarshalGenAI())
	want := `{"type":"OBJECT","properties":{` +
		`"intent":{"type":"STRING"},` +
		`"suggestions":{"type":"ARRAY","items":{"type":"STRING"},"minItems":3,"maxItems":3},` +
		`"confidence":{"type":"INTEGER","minimum":0,"maximum":100}` +
		`},"required":["intent","suggestions","confidence"]}`
	if got != want {
		t.Errorf("MarshalGenAI() = %s, want %s", got, want)
	}
}

func TestUserContextValid(t *testing.T) {
	cases := []struct {
		name string
		uc   UserContext
		want bool
	}{
		{"complete", UserContext{GenderMale, GoalDating, ToneDirect}, true},
		{"no tone", UserContext{GenderFemale, GoalFriendship, ""}, true},
		{"bad goal", UserContext{GenderMale, "world domination", ""}, false},
		{"bad gender", UserContext{"unknown", GoalCasual, ""}, false},
		{"bad tone", UserContext{GenderMale, GoalBusiness, "sarcastic"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.uc.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
