package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"chainsight/internal/analytics"
	"chainsight/internal/conversation"
	"chainsight/internal/display"
	"chainsight/internal/listener"
	"chainsight/internal/logger"
	"chainsight/internal/server"
	"chainsight/internal/session"
)

// App carries the wired-up core into the commands.
type App struct {
	Runner     server.TurnRunner
	Store      session.Store
	Ready      func() bool
	ListenAddr string
}

var app *App

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "A chat assistant for actuarial loss-triangle analysis",
	Long: `An assistant that routes your questions about loss triangles to a team of
specialized agents: data preparation, reserving analysis, visualization and
explanation.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChat()
	},
}

func Execute(a *App) {
	app = a
	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runChat() {
	if err := listener.Init(); err != nil {
		fmt.Println("Failed to init terminal input:", err)
		os.Exit(1)
	}
	defer listener.Close()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}()

	key := session.ResolveKey(nil)
	triangle := ""

	if !app.Ready() {
		listener.AsyncPrintln("Warning: no completion backend is configured. Set GEMINI_API_KEY or switch LLM_BACKEND to ollama.")
	}
	listener.AsyncPrintln("Hello! Ask me about loss triangles. Commands: 'triangle <name>', 'clear', 'exit'.")
	listener.AsyncPrintln(fmt.Sprintf("Sample triangles: %s", strings.Join(analytics.SampleDatasets, ", ")))

	for {
		inputText := listener.GetInput()
		lower := strings.ToLower(inputText)

		switch {
		case inputText == "":
			continue

		case lower == "exit":
			fmt.Println("Goodbye!")
			return

		case lower == "clear":
			if err := app.Store.Clear(key); err != nil {
				listener.AsyncPrintln(fmt.Sprintf("[Clear FAILED] %v", err))
				continue
			}
			triangle = ""
			listener.AsyncPrintln("Conversation cleared.")
			continue

		case strings.HasPrefix(lower, "triangle "):
			want := strings.TrimSpace(inputText[len("triangle "):])
			triangle = analytics.SanitizeDataset(want)
			if triangle != want {
				listener.AsyncPrintln(fmt.Sprintf("Unknown triangle %q, using %q.", want, triangle))
			} else {
				listener.AsyncPrintln(fmt.Sprintf("Selected triangle: %s", triangle))
			}
			continue
		}

		turn := conversation.Turn{Text: inputText, HintDataset: triangle}
		reply, tm, err := app.Runner.Run(context.Background(), turn, key)
		if err != nil {
			logger.Log.Printf("[CLI] turn %s: %v", tm.TurnID, err)
			listener.AsyncPrintln(fmt.Sprintf("[Session save FAILED] %v", err))
		}

		listener.AsyncPrintln(reply.Content)
		listener.AsyncPrintln(display.FormatTurnMetrics(tm))
	}
}
