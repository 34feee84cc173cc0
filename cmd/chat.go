package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"interviewrag/src/storage/redisctrl"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agent from the terminal",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

type chatter interface {
	Chat(ctx context.Context, sessionID, utterance string) (string, error)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := redisctrl.NewClient(viper.GetString("redis.url"))
	if err != nil {
		return err
	}
	defer rdb.Close()

	oc, err := newOllama()
	if err != nil {
		return err
	}
	generator, closeGenerator, err := newGenerator(ctx, oc)
	if err != nil {
		return err
	}
	defer closeGenerator()

	wsdk, err := newWeaviate()
	if err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(db, redisctrl.NewSessionStore(rdb), newSearchService(oc, wsdk), generator)
	if err != nil {
		return err
	}

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orchestrator)
}

// chatLoop asks for a name, then relays lines to the agent until exit, quit or EOF.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, agent chatter) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "Enter your name: ")
	if !scanner.Scan() {
		return scanner.Err()
	}
	sessionID := "user:" + strings.TrimSpace(scanner.Text())

	fmt.Fprintln(out, "Start chatting with your RAG agent. Type 'exit' to quit.")
	fmt.Fprintln(out)

	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		query := scanner.Text()
		switch strings.ToLower(strings.TrimSpace(query)) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		}

		answer, err := agent.Chat(ctx, sessionID, query)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "Agent: %s\n\n", answer)
	}
}
