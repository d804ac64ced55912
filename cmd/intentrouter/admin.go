package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intentrouter/pkg/config"
	"intentrouter/pkg/memory"
	"intentrouter/pkg/router"
)

func initConfig(cmd *cobra.Command, force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		cmd.Printf("Config already exists at %s\n", configPath)
		cmd.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(cmd.InOrStdin())
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			cmd.Println("Aborted.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("%s is ready!\n", appName)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Add provider API keys to", configPath)
	cmd.Println("     (Gemini, OpenAI, Groq; Ollama only needs a local daemon)")
	cmd.Println("  2. Ask something: intentrouter query \"who is sachin tendulkar\"")
	cmd.Println("  3. Chat with feedback: intentrouter chat")
	cmd.Println("  4. Check readiness: intentrouter status")
	return nil
}

func runQuery(cmd *cobra.Command, query string, debug bool) error {
	deps, err := buildRuntime(debug, router.AutoApprove{})
	if err != nil {
		return err
	}
	defer deps.close()

	sess := router.NewSession(deps.cfg.Router.MaxTurns, deps.cfg.Router.TraceSize)
	result, err := deps.orch.Process(context.Background(), sess, query)
	if err != nil {
		return err
	}

	cmd.Println(result.FinalAnswer)
	if debug {
		cmd.Printf("\n[signature: %s, from_memory: %v, best_provider: %s]\n",
			result.Signature, result.FromMemory, result.BestProvider)
	}
	return nil
}

func openStoreForInspection() (memory.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := memory.Open(cfg.Memory.Backend, cfg.MemoryPath(), zap.NewNop())
	if err != nil {
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}
	return store, cfg, nil
}

func memoryList(cmd *cobra.Command, domain string) error {
	store, _, err := openStoreForInspection()
	if err != nil {
		return err
	}
	defer store.Close()

	var signatures []string
	if domain != "" {
		signatures, err = store.SignaturesInDomain(domain)
	} else {
		signatures, err = store.ListSignatures()
	}
	if err != nil {
		return err
	}

	if len(signatures) == 0 {
		cmd.Println("No stored intents.")
		return nil
	}
	for _, sig := range signatures {
		cmd.Println(sig)
	}
	cmd.Printf("\n%d intent(s)\n", len(signatures))
	return nil
}

func memoryShow(cmd *cobra.Command, signature string) error {
	store, _, err := openStoreForInspection()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(signature)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", signature, err)
	}

	verified := "auto-saved"
	if rec.Source.HumanVerified {
		verified = "human-verified"
	}
	cmd.Printf("Intent:      %s\n", rec.Signature)
	cmd.Printf("Domain:      %s\n", rec.Domain)
	cmd.Printf("Task:        %s\n", rec.Task)
	cmd.Printf("Object:      %s\n", rec.Object)
	cmd.Printf("Confidence:  %.2f (%s)\n", rec.Confidence, verified)
	cmd.Printf("Generated:   %s (judge: %s)\n", strings.Join(rec.Source.GeneratedBy, ", "), rec.Source.Judge)
	cmd.Printf("Created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Last used:   %s\n", rec.LastUsedAt.Format(time.RFC3339))
	if n := len(rec.HistoryLog); n > 0 {
		cmd.Printf("Overwrites:  %d archived answer(s)\n", n)
	}
	cmd.Printf("\n%s\n", rec.ApprovedAnswer)
	return nil
}

func statusCmd(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	configPath := getConfigPath()

	cmd.Printf("%s Status\n", appName)
	cmd.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		cmd.Printf("Build: %s\n", build)
	}
	cmd.Println()

	if _, err := os.Stat(configPath); err == nil {
		cmd.Println("Config:", configPath, "✓")
	} else {
		cmd.Println("Config:", configPath, "✗ (run: intentrouter init)")
	}

	memoryPath := cfg.MemoryPath()
	if _, err := os.Stat(memoryPath); err == nil {
		cmd.Printf("Memory: %s (%s) ✓\n", memoryPath, cfg.Memory.Backend)
	} else {
		cmd.Printf("Memory: %s (%s) not initialized\n", memoryPath, cfg.Memory.Backend)
	}
	cmd.Println()

	status := func(ready bool) string {
		if ready {
			return "✓"
		}
		return "not set"
	}
	geminiReady := strings.TrimSpace(cfg.Providers.Gemini.APIKey) != ""
	openaiReady := strings.TrimSpace(cfg.Providers.OpenAI.APIKey) != ""
	groqReady := strings.TrimSpace(cfg.Providers.Groq.APIKey) != ""

	cmd.Println("Gemini API:", status(geminiReady))
	cmd.Println("OpenAI API:", status(openaiReady))
	cmd.Println("Groq API:", status(groqReady))
	cmd.Println("Ollama:", cfg.Providers.Ollama.BaseURL, "(needs a running daemon)")
	cmd.Println()
	cmd.Println("Judge provider:", cfg.Router.JudgeProvider)
	cmd.Println("Intent provider:", cfg.Router.IntentProvider, "(fallback:", cfg.Router.IntentFallback+")")
	cmd.Println("Ready:", status(geminiReady || openaiReady || groqReady))
	return nil
}
