package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xelth-com/wooassist/internal/app"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/tenant"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	Long: `Reads one message per line from stdin and prints each reply.
Type /reset to clear the conversation and /quit to leave.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("client-key", "", "tenant client key (default: the WOO_* store)")
	chatCmd.Flags().String("conversation", "", "conversation id to resume (default: a new one)")
	chatCmd.Flags().Bool("debug", false, "print the routing debug block after each reply")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	clientKey, _ := cmd.Flags().GetString("client-key")
	convID, _ := cmd.Flags().GetString("conversation")
	debug, _ := cmd.Flags().GetBool("debug")
	if convID == "" {
		convID = uuid.NewString()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	tc, err := a.Tenants.ResolveByKey(ctx, clientKey)
	if err != nil {
		return fmt.Errorf("resolve client: %w", err)
	}
	key := tenant.SessionKey(tc.ID, convID)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Conversation %s with %s. Type /quit to leave.\n", convID, orDefault(tc.DisplayName(), "the store"))

	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := a.Chat.ClearSession(ctx, key); err != nil {
				fmt.Fprintln(out, "reset failed:", err)
			} else {
				fmt.Fprintln(out, "Conversation cleared.")
			}
			continue
		}

		reply := a.Chat.Handle(ctx, line, key, tc)
		fmt.Fprintln(out, renderReply(reply.Text))
		if debug {
			data, _ := json.MarshalIndent(reply.Debug, "", "  ")
			fmt.Fprintf(out, "--- debug ---\n%s\n", data)
		}
	}
	return in.Err()
}

// renderReply shows a confirmation envelope as its summary lines, the way
// a chat client would render the card.
func renderReply(text string) string {
	body, env, ok := confirm.Extract(text)
	if !ok {
		return strings.Replace(text, "\n"+confirm.IntroBreak+"\n", "\n\n", 1)
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(body))
	fmt.Fprintf(&b, "\n\n[%s: %s]", env.ProductName, env.Description)
	for _, k := range slices.Sorted(maps.Keys(env.Summary)) {
		fmt.Fprintf(&b, "\n  %s: %s", k, env.Summary[k])
	}
	b.WriteString("\n(type confirm, cancel, publish or draft)")
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
