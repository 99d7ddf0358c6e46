package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/wingman/internal/config"
)

// assistFlags adds the user-context flags shared by assist commands.
func assistFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "cli", "user identifier")
	cmd.Flags().String("target", "", "target identifier")
	cmd.Flags().String("gender", "", "your gender: male or female")
	cmd.Flags().String("goal", "", "relationship goal: friendship, dating, flirting, casual, or business")
	cmd.Flags().String("tone", "", "tone: formal, flirty, humorous, direct, or gentle")
	cmd.Flags().String("profile", "", "target profile as a JSON object")
}

func assistBody(cmd *cobra.Command) (map[string]any, error) {
	user, _ := cmd.Flags().GetString("user")
	target, _ := cmd.Flags().GetString("target")
	gender, _ := cmd.Flags().GetString("gender")
	goal, _ := cmd.Flags().GetString("goal")
	tone, _ := cmd.Flags().GetString("tone")
	profileStr, _ := cmd.Flags().GetString("profile")

	body := map[string]any{
		"user_id":   user,
		"target_id": target,
		"gender":    gender,
		"goal":      goal,
		"tone":      tone,
	}
	if profileStr != "" {
		var profile map[string]any
		if err := json.Unmarshal([]byte(profileStr), &profile); err != nil {
			return nil, fmt.Errorf("invalid --profile JSON: %w", err)
		}
		body["profile"] = profile
	}
	return body, nil
}

// readConversation resolves the transcript from --conversation, --file,
// or stdin, in that order.
func readConversation(cmd *cobra.Command) (string, error) {
	if conv, _ := cmd.Flags().GetString("conversation"); conv != "" {
		return conv, nil
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading conversation file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("one of --conversation or --file is required")
}

// --- openers ---

var openersCmd = &cobra.Command{
	Use:   "openers",
	Short: "Generate three conversation openers for a topic",
	Long: `Generate three conversation openers for a topic category.

Examples:
  wingman openers --topic hobbies --gender male --goal dating
  wingman openers --topic travel --gender female --goal friendship --profile '{"interests":"hiking, jazz"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := assistBody(cmd)
		if err != nil {
			return err
		}
		topic, _ := cmd.Flags().GetString("topic")
		if topic == "" {
			return fmt.Errorf("--topic is required (hobbies, travel, food, work, deep, or funny)")
		}
		body["topic"] = topic

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/assist/openers", body)
		if err != nil {
			return err
		}

		var result struct {
			Openers []string `json:"openers"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for i, opener := range result.Openers {
			fmt.Printf("%s %s\n", colorize(colorCyan, fmt.Sprintf("%d.", i+1)), opener)
		}
		return nil
	},
}

// --- reply ---

var replyCmd = &cobra.Command{
	Use:   "reply",
	Short: "Analyze a conversation and suggest three replies",
	Long: `Analyze a conversation and suggest three replies aligned with your goal.
Mark your own lines with "You:" in the transcript.

Examples:
  wingman reply --gender male --goal dating --conversation "Them: 週末有空嗎?"
  wingman reply --gender female --goal friendship --file ./chat.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := assistBody(cmd)
		if err != nil {
			return err
		}
		conversation, err := readConversation(cmd)
		if err != nil {
			return err
		}
		body["conversation"] = conversation

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/assist/reply", body)
		if err != nil {
			return err
		}

		var result struct {
			Analysis    string   `json:"analysis"`
			Suggestions []string `json:"suggestions"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s\n\n", colorize(colorBold, "Analysis:"), result.Analysis)
		for i, s := range result.Suggestions {
			fmt.Printf("%s %s\n", colorize(colorCyan, fmt.Sprintf("%d.", i+1)), s)
		}
		return nil
	},
}

// --- intent ---

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Assess the other party's intent from a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		conversation, err := readConversation(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		target, _ := cmd.Flags().GetString("target")
		gender, _ := cmd.Flags().GetString("gender")

		body := map[string]any{
			"user_id":      user,
			"target_id":    target,
			"gender":       gender,
			"conversation": conversation,
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/assist/intent", body)
		if err != nil {
			return err
		}

		var result struct {
			Intent     string `json:"intent"`
			Reasoning  string `json:"reasoning"`
			Confidence int    `json:"confidence"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s\n", colorize(colorBold, "Intent:"), result.Intent)
		fmt.Printf("%s %d%%\n", colorize(colorBold, "Confidence:"), result.Confidence)
		fmt.Printf("%s %s\n", colorize(colorBold, "Reasoning:"), result.Reasoning)
		return nil
	},
}

// --- transcreate ---

var transcreateCmd = &cobra.Command{
	Use:   "transcreate <text>",
	Short: "Transcreate text between English and Traditional Chinese",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := assistBody(cmd)
		if err != nil {
			return err
		}
		body["text"] = strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/assist/transcreate", body)
		if err != nil {
			return err
		}

		var result struct {
			Translation string `json:"translation"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Translation)
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		days, _ := cmd.Flags().GetInt("days")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/v1/interactions?user_id=%s&days=%d", url.QueryEscape(user), days))
		if err != nil {
			return err
		}

		var result struct {
			Interactions []struct {
				ID           string `json:"id"`
				Mode         string `json:"mode"`
				Goal         string `json:"goal"`
				Conversation string `json:"conversation"`
				Timestamp    string `json:"timestamp"`
			} `json:"interactions"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range result.Interactions {
			snippet := ix.Conversation
			if len(snippet) > 60 {
				snippet = snippet[:60] + "..."
			}
			fmt.Printf("%s  %-14s  %-10s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.Mode,
				ix.Goal,
				snippet,
			)
		}
		return nil
	},
}

// --- target ---

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage conversation targets",
}

var targetAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/targets", map[string]any{
			"user_id": user,
			"name":    args[0],
		})
		if err != nil {
			return err
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Added target %s (%s)", args[0], created.ID)
		return nil
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/targets?user_id="+url.QueryEscape(user))
		if err != nil {
			return err
		}

		var result struct {
			Targets []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"targets"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Targets) == 0 {
			fmt.Println("No targets found.")
			return nil
		}
		for _, tg := range result.Targets {
			fmt.Printf("%s  %s\n", colorize(colorCyan, tg.ID), tg.Name)
		}
		return nil
	},
}

var targetShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a target and its profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/targets/"+args[0])
		if err != nil {
			return err
		}

		var target any
		if err := decodeJSON(resp, &target); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(target)
	},
}

var targetSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Update a target's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileStr, _ := cmd.Flags().GetString("profile")
		if profileStr == "" {
			return fmt.Errorf("--profile is required")
		}
		var profile map[string]any
		if err := json.Unmarshal([]byte(profileStr), &profile); err != nil {
			return fmt.Errorf("invalid --profile JSON: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.patch(cmd.Context(), "/v1/targets/"+args[0], map[string]any{"profile": profile})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}
		printSuccess("Profile updated")
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key> <value>",
	Short: "Store a secret in the platform secret store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetSecret(key, value); err != nil {
			return err
		}

		printSuccess("Stored secret %s", key)
		return nil
	},
}

func init() {
	assistFlags(openersCmd)
	openersCmd.Flags().String("topic", "", "topic category: hobbies, travel, food, work, deep, or funny")

	assistFlags(replyCmd)
	replyCmd.Flags().String("conversation", "", "conversation transcript")
	replyCmd.Flags().String("file", "", "file containing the conversation transcript")

	intentCmd.Flags().String("user", "cli", "user identifier")
	intentCmd.Flags().String("target", "", "target identifier")
	intentCmd.Flags().String("gender", "", "your gender: male or female")
	intentCmd.Flags().String("conversation", "", "conversation transcript")
	intentCmd.Flags().String("file", "", "file containing the conversation transcript")

	assistFlags(transcreateCmd)

	historyCmd.Flags().String("user", "cli", "user identifier")
	historyCmd.Flags().Int("days", 7, "history window in days")

	targetAddCmd.Flags().String("user", "cli", "user identifier")
	targetListCmd.Flags().String("user", "cli", "user identifier")
	targetSetCmd.Flags().String("profile", "", "target profile as a JSON object")
	targetCmd.AddCommand(targetAddCmd)
	targetCmd.AddCommand(targetListCmd)
	targetCmd.AddCommand(targetShowCmd)
	targetCmd.AddCommand(targetSetCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
}
