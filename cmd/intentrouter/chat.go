package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"intentrouter/pkg/router"
)

// consolePort presents each draft on the terminal and reads feedback.
// An empty line approves; anything else is handed back to the workflow
// for revision or a topic switch.
type consolePort struct {
	readLine func(prompt string) (string, error)
}

func (p *consolePort) Present(d router.Draft) (string, error) {
	origin := "generated"
	if d.FromMemory {
		origin = "from memory"
	}
	fmt.Printf("\n%s [%s, %s]\n%s\n\n", appName, d.Signature, origin, d.Answer)
	line, err := p.readLine("Feedback (Enter to accept): ")
	if err != nil {
		if err == io.EOF || err == readline.ErrInterrupt {
			// Treat a closed input as approval so the draft is not lost.
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runChat(debug bool) error {
	rl, rlErr := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", appName),
		HistoryFile:     filepath.Join(os.TempDir(), ".intentrouter_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	var port *consolePort
	var readQuery func() (string, error)

	if rlErr != nil {
		fmt.Printf("Error initializing readline: %v\n", rlErr)
		fmt.Println("Falling back to simple input mode...")
		reader := bufio.NewReader(os.Stdin)
		readSimple := func(prompt string) (string, error) {
			fmt.Print(prompt)
			line, err := reader.ReadString('\n')
			if err != nil {
				return "", err
			}
			return line, nil
		}
		port = &consolePort{readLine: readSimple}
		readQuery = func() (string, error) {
			return readSimple(fmt.Sprintf("%s You: ", appName))
		}
	} else {
		defer rl.Close()
		port = &consolePort{readLine: func(prompt string) (string, error) {
			rl.SetPrompt(prompt)
			defer rl.SetPrompt(fmt.Sprintf("%s You: ", appName))
			return rl.Readline()
		}}
		readQuery = rl.Readline
	}

	deps, err := buildRuntime(debug, port)
	if err != nil {
		return err
	}
	defer deps.close()

	sess := router.NewSession(deps.cfg.Router.MaxTurns, deps.cfg.Router.TraceSize)
	fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", appName)

	for {
		line, err := readQuery()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		result, err := deps.orch.Process(context.Background(), sess, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s %s\n\n", appName, result.FinalAnswer)
	}
}
