package prompt

import "strings"

// Gender of the end user, declared per call.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Goal describes what the user wants out of the relationship.
type Goal string

const (
	GoalFriendship Goal = "friendship"
	GoalDating     Goal = "dating"
	GoalFlirting   Goal = "flirting"
	GoalCasual     Goal = "casual"
	GoalBusiness   Goal = "business"
)

// Tone adjusts how generated text should read. The empty value means
// no tone directive is emitted.
type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneFlirty   Tone = "flirty"
	ToneHumorous Tone = "humorous"
	ToneDirect   Tone = "direct"
	ToneGentle   Tone = "gentle"
)

// TopicCategory selects the theme for generated conversation openers.
type TopicCategory string

const (
	TopicHobbies TopicCategory = "hobbies"
	TopicTravel  TopicCategory = "travel"
	TopicFood    TopicCategory = "food"
	TopicWork    TopicCategory = "work"
	TopicDeep    TopicCategory = "deep"
	TopicFunny   TopicCategory = "funny"
)

// UserContext is the per-call user state. It is immutable for the
// duration of a single orchestration call.
type UserContext struct {
	Gender Gender
	Goal   Goal
	Tone   Tone
}

// Valid reports whether gender and goal carry known values. Tone is
// optional and only checked when set.
func (uc UserContext) Valid() bool {
	if _, ok := goalPhrases[uc.Goal]; !ok {
		return false
	}
	if uc.Gender != GenderMale && uc.Gender != GenderFemale {
		return false
	}
	if uc.Tone != "" {
		if _, ok := tonePhrases[uc.Tone]; !ok {
			return false
		}
	}
	return true
}

// TargetProfile holds free-text facts about the other person. All
// fields are optional; blank fields never reach the compiled prompt.
type TargetProfile struct {
	Nationality string `json:"nationality"`
	Age         string `json:"age"`
	Education   string `json:"education"`
	Job         string `json:"job"`
	BodyType    string `json:"bodyType"`
	Religion    string `json:"religion"`
	Diet        string `json:"diet"`
	Interests   string `json:"interests"`
}

// profileLabels fixes the rendering order of profile fields so compiled
// output is byte-stable across calls.
var profileLabels = []struct {
	label string
	value func(TargetProfile) string
}{
	{"nationality", func(p TargetProfile) string { return p.Nationality }},
	{"age", func(p TargetProfile) string { return p.Age }},
	{"education", func(p TargetProfile) string { return p.Education }},
	{"job", func(p TargetProfile) string { return p.Job }},
	{"bodyType", func(p TargetProfile) string { return p.BodyType }},
	{"religion", func(p TargetProfile) string { return p.Religion }},
	{"diet", func(p TargetProfile) string { return p.Diet }},
	{"interests", func(p TargetProfile) string { return p.Interests }},
}

// Line renders the profile as a comma-separated "label: value" string,
// skipping fields that are empty or all-whitespace. Returns
// "Not specified" when nothing is set.
func (p TargetProfile) Line() string {
	var parts []string
	for _, f := range profileLabels {
		v := strings.TrimSpace(f.value(p))
		if v == "" {
			continue
		}
		parts = append(parts, f.label+": "+v)
	}
	if len(parts) == 0 {
		return "Not specified"
	}
	return strings.Join(parts, ", ")
}
