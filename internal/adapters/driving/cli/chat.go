package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	chatUser    string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session against the retrieval pipeline",
	Long: `Starts a line-based session. Each line is recorded as a user turn and
answered with the assembled, cited context for that question. Paste the
external model's reply with /reply to record the assistant turn, so the
conversational memory tracks both sides.

Commands:
  /reply <text>  record the assistant's reply as a turn
  /memory        show the current memory snapshot
  /quit          leave the session`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "default", "user scope for memory")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "default", "conversation session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	ctx := cmd.Context()
	cmd.Printf("Session %s (user %s). /quit to leave.\n", chatSession, chatUser)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return scanner.Err()

		case line == "/memory":
			if err := printMemory(cmd); err != nil {
				cmd.Printf("error: %v\n", err)
			}
			continue

		case strings.HasPrefix(line, "/reply "):
			reply := strings.TrimSpace(strings.TrimPrefix(line, "/reply "))
			if err := assistantService.RecordTurn(ctx, chatUser, chatSession, "assistant", reply); err != nil {
				cmd.Printf("error: %v\n", err)
			}
			continue
		}

		if err := assistantService.RecordTurn(ctx, chatUser, chatSession, "user", line); err != nil {
			cmd.Printf("error: %v\n", err)
			continue
		}

		result, err := assistantService.RetrieveContext(ctx, chatUser, chatSession, line)
		if err != nil {
			cmd.Printf("error: %v\n", err)
			continue
		}

		cmd.Println()
		cmd.Println(result.Text)
		printFlags(cmd, result.Flags)
		cmd.Println()
	}

	return scanner.Err()
}

func printMemory(cmd *cobra.Command) error {
	snapshot, err := assistantService.GetMemorySnapshot(cmd.Context(), chatUser, chatSession)
	if err != nil {
		return fmt.Errorf("reading memory: %w", err)
	}

	if snapshot.Stateless {
		cmd.Println("Memory store unreachable; session is stateless.")
		return nil
	}

	if snapshot.Summary != "" {
		cmd.Printf("Summary: %s\n", snapshot.Summary)
	}
	if len(snapshot.Profile) > 0 {
		cmd.Println("Profile:")
		for _, r := range snapshot.Profile {
			cmd.Printf("  %s: %s\n", r.Key, r.Value)
		}
	}
	if len(snapshot.Knowledge) > 0 {
		cmd.Println("Knowledge:")
		for _, r := range snapshot.Knowledge {
			cmd.Printf("  %s: %s\n", r.Key, r.Value)
		}
	}
	cmd.Printf("Recent turns: %d\n", len(snapshot.Recent))
	return nil
}
