package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/chat"
	"github.com/Ajaypalvai07/ai-help-center/internal/conversation"
)

var chatShowHistory bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List help categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

var chatCmd = &cobra.Command{
	Use:   "chat [category] <message>",
	Short: "Send a message to the assistant",
	Long: `Send a message to the assistant in a help category and print its reply.

When the category is omitted, the most recently used category is reused.

Examples:
  helpcenter chat billing "Why was I charged twice?"
  helpcenter chat "and what about last month?"
  helpcenter chat --history billing "What payment methods do you take?"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runChat,
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id> <rating>",
	Short: "Rate an assistant reply from 1 to 5",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeedback,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowHistory, "history", false, "print the stored transcript before the reply")
}

func runCategories(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cats, err := a.client.Categories(cmd.Context())
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	for _, c := range cats {
		if c.Description != "" {
			fmt.Printf("%-16s %s\n", c.ID, c.Description)
		} else {
			fmt.Printf("%-16s %s\n", c.ID, c.Name)
		}
	}
	return nil
}

// resolveCategory picks the category from args or falls back to the last
// one used, mirroring how the web client restores the active chat.
func resolveCategory(a *app, args []string) (category, message string, err error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	category = a.transcript.LastCategory()
	if category == "" {
		return "", "", errors.New("no category given and no previous chat to resume (run `helpcenter categories`)")
	}
	return category, args[0], nil
}

func printMessage(m conversation.Message) {
	who := "you"
	if m.Role == conversation.RoleAssistant {
		who = "assistant"
	}
	fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Content)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireAuth(cmd.Context()); err != nil {
		return err
	}

	category, message, err := resolveCategory(a, args)
	if err != nil {
		return err
	}

	if chatShowHistory {
		for _, m := range a.transcript.Load(category) {
			printMessage(m)
		}
	}

	transcript, err := a.runner.Send(cmd.Context(), category, message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			return errors.New("message is empty")
		case errors.Is(err, api.ErrUnauthenticated):
			// The runner already signed us out.
			return errors.New("session expired, sign in again")
		}
		return err
	}

	// Print the exchange we just made: the final two entries are the sent
	// message and the reply.
	start := len(transcript) - 2
	if start < 0 {
		start = 0
	}
	for _, m := range transcript[start:] {
		printMessage(m)
	}
	return nil
}

func runFeedback(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireAuth(cmd.Context()); err != nil {
		return err
	}

	rating := 0
	if _, err := fmt.Sscanf(strings.TrimSpace(args[1]), "%d", &rating); err != nil || rating < 1 || rating > 5 {
		return errors.New("rating must be an integer from 1 to 5")
	}

	if err := a.client.MessageFeedback(cmd.Context(), args[0], rating, ""); err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			a.sessions.SignOut(cmd.Context())
			return errors.New("session expired, sign in again")
		}
		return fmt.Errorf("submit feedback: %w", err)
	}

	fmt.Println("Feedback recorded")
	return nil
}
