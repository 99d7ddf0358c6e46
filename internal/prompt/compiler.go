package prompt

import (
	"fmt"
	"strings"
)

// Compiled is the fully-built model request for one operation: a system
// instruction, a task prompt, and the response contract the output must
// satisfy. Compilation is deterministic and side-effect free.
type Compiled struct {
	System string
	Task   string
	Schema Schema
}

var goalPhrases = map[Goal]string{
	GoalFriendship: "purely platonic friendship",
	GoalDating:     "a serious, long-term relationship",
	GoalFlirting:   "light-hearted flirting and building romantic tension",
	GoalCasual:     "a casual, low-commitment intimate relationship",
	GoalBusiness:   "building trust for a business partnership",
}

var tonePhrases = map[Tone]string{
	ToneFormal:   "formal and professional",
	ToneFlirty:   "flirty and charming",
	ToneHumorous: "humorous and light-hearted",
	ToneDirect:   "direct and straightforward",
	ToneGentle:   "gentle and considerate",
}

// IntentLabels is the closed set of target-intent categories the model
// must choose from. Reasoning is always reported in Traditional Chinese
// regardless of the conversation language.
var IntentLabels = []string{"純友誼", "對你有好感", "尋求親密關係", "沒興趣", "不明確"}

// systemInstruction builds the shared assistant context block. Tone is
// omitted when empty (intent analysis and transcreation never set one).
func systemInstruction(uc UserContext, profile TargetProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert AI social assistant. Your user is %s. ", uc.Gender)
	fmt.Fprintf(&sb, "Their goal is to achieve %s. ", goalPhrases[uc.Goal])
	fmt.Fprintf(&sb, "The target person's profile is: %s. ", profile.Line())
	if uc.Tone != "" {
		fmt.Fprintf(&sb, "Your tone should be %s. ", tonePhrases[uc.Tone])
	}
	sb.WriteString("You MUST respond in valid JSON format as requested.")
	return sb.String()
}

// CompileOpeners builds the request for generating exactly three
// conversation openers for the given topic category.
func CompileOpeners(uc UserContext, profile TargetProfile, topic TopicCategory) Compiled {
	task := fmt.Sprintf("Generate three distinct, concise, and effective conversation openers "+
		"for the category '%s'. Personalize them to the target's profile. "+
		"Format the output as a valid JSON object with a single key \"openers\", "+
		"which is an array of three strings.", topic)
	return Compiled{
		System: systemInstruction(uc, profile),
		Task:   task,
		Schema: Schema{Fields: []Field{
			{Name: "openers", Type: TypeStringArray, Count: 3},
		}},
	}
}

// CompileSuggestReply builds the request for a strategic analysis of the
// conversation plus exactly three reply suggestions. The analysis is
// always reported in Traditional Chinese; suggestions mirror the
// language of the conversation itself.
func CompileSuggestReply(uc UserContext, profile TargetProfile, transcript string) Compiled {
	task := fmt.Sprintf("Analyze the following conversation (User is 'You') and provide a "+
		"strategic analysis and three optimal reply suggestions.\n\n"+
		"Conversation:\n%s\n\n"+
		"Write each reply suggestion in the same language as the conversation above. "+
		"Format the output as a valid JSON object with two keys: "+
		"1. \"analysis\": A string containing a brief strategic analysis (in Traditional Chinese). "+
		"2. \"suggestions\": An array of three distinct reply suggestion strings.", transcript)
	return Compiled{
		System: systemInstruction(uc, profile),
		Task:   task,
		Schema: Schema{Fields: []Field{
			{Name: "analysis", Type: TypeString},
			{Name: "suggestions", Type: TypeStringArray, Count: 3},
		}},
	}
}

// CompileIntent builds the request for assessing the other party's
// intent. No goal, tone, or profile context is injected: the analyst
// persona is deliberately neutral.
func CompileIntent(transcript string, userGender Gender, targetName string) Compiled {
	system := fmt.Sprintf("You are an objective conversation analyst AI. Analyze the "+
		"conversation between User (%s) and Target (%s) and determine the Target's intent. "+
		"You MUST respond in valid JSON format.", userGender, targetName)
	task := fmt.Sprintf("Conversation History:\n%s\n\n"+
		"Task: Analyze the conversation and determine the target's intent. "+
		"Format your output as a valid JSON object with three keys: "+
		"1. \"intent\": A string from this list: '%s'. "+
		"2. \"reasoning\": A string with a brief explanation for your choice (in Traditional Chinese). "+
		"3. \"confidence\": An integer between 0 and 100.",
		transcript, strings.Join(IntentLabels, "', '"))
	return Compiled{
		System: system,
		Task:   task,
		Schema: Schema{Fields: []Field{
			{Name: "intent", Type: TypeString},
			{Name: "reasoning", Type: TypeString},
			{Name: "confidence", Type: TypeInteger, Bounded: true, Min: 0, Max: 100},
		}},
	}
}

// CompileTranscreate builds the request for meaning-preserving
// translation between Traditional Chinese and English. The output
// language is the complement of the detected source language. Tone is
// never applied to transcreation.
func CompileTranscreate(uc UserContext, profile TargetProfile, text string) Compiled {
	uc.Tone = ""
	task := fmt.Sprintf("Transcreate the following text. This is not a literal translation. "+
		"Adapt the original intent, tone, and nuance to sound natural in the target language "+
		"(English or Traditional Chinese), fitting the user's goal. If the text is in Chinese, "+
		"produce English; if it is in English, produce Traditional Chinese.\n\n"+
		"Text to Transcreate:\n%s\n\n"+
		"CRITICAL: Format your output as a valid JSON object with a single key \"translation\" "+
		"containing the transcreated string.", text)
	return Compiled{
		System: systemInstruction(uc, profile),
		Task:   task,
		Schema: Schema{Fields: []Field{
			{Name: "translation", Type: TypeString},
		}},
	}
}
