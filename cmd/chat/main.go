package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"transcript-qa/internal/di"
	"transcript-qa/internal/infra/config"
	"transcript-qa/internal/infra/logger"
	"transcript-qa/internal/usecase"
)

var debugMode bool

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering over the transcript index",
	Long: `Starts a terminal conversation against the configured transcript
index. Commands inside the session:

  :reset    clear the conversation history
  :history  print the conversation so far
  :prompts  list available prompt versions
  :quit     exit`,
	RunE: runChat,
}

func init() {
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "print pipeline internals with each answer")
}

func runChat(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.New()
	slog.SetDefault(log)

	ctx := context.Background()
	components, err := di.NewApplicationComponents(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire components: %w", err)
	}
	if components.Pool != nil {
		defer components.Pool.Close()
	}

	pipeline := components.NewPipeline()

	fmt.Printf("Ask about the transcript library (prompt %s). Type :quit to exit.\n", pipeline.PromptVersion())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case ":quit", ":exit":
			return nil
		case ":reset":
			pipeline.ResetConversation()
			fmt.Println("conversation cleared")
			continue
		case ":history":
			printHistory(pipeline)
			continue
		case ":prompts":
			for _, info := range usecase.ListPromptVersions() {
				fmt.Printf("%s  (%s)  %s\n", info.Version, info.Date, info.Changelog)
			}
			continue
		}

		if err := answer(ctx, pipeline, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func answer(ctx context.Context, pipeline *usecase.Pipeline, question string) error {
	if debugMode {
		debug, err := pipeline.AskDebug(ctx, question)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", debug.Text)
		printSources(debug.Sources)
		fmt.Printf("\n[debug] request=%s language=%s queries=%d candidates=%d\n\n",
			debug.RequestID, debug.DetectedLanguage, len(debug.ExpandedQueries), len(debug.PreFilter))
		return nil
	}

	result, err := pipeline.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", result.Text)
	printSources(result.Sources)
	fmt.Println()
	return nil
}

func printSources(sources []usecase.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, source := range sources {
		fmt.Printf("  - %s (score %.3f): %s\n", source.Title, source.Score, source.Excerpt)
	}
}

func printHistory(pipeline *usecase.Pipeline) {
	history := pipeline.ConversationHistory()
	if len(history) == 0 {
		fmt.Println("no conversation yet")
		return
	}
	for _, turn := range history {
		fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
