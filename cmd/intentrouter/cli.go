package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "intentrouter",
		Short: "Multi-provider query router with intent-keyed answer memory",
		Long: strings.TrimSpace(`intentrouter routes each query across several LLM providers, has a judge
pick and correct the best candidate, and caches approved answers under a
domain|task|object intent signature so equivalent future queries are
adapted from memory instead of regenerated.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(func(format string, a ...any) { cmd.Printf(format, a...) })
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newInitCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newQueryCommand())
	root.AddCommand(newMemoryCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write a default ~/.intentrouter/config.json",
		Example: "  intentrouter init",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config without asking")
	return cmd
}

func newChatCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session with the feedback loop",
		Long: strings.TrimSpace(`Run an interactive session. Every answer is presented for feedback:
press Enter to approve and memorize it, type a correction to have the
judge revise it, or ask something new to switch topics.`),
		Example: "  intentrouter chat --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(debug)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newQueryCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Answer a single query without prompting for feedback",
		Long:  "Run one query through the full pipeline with feedback auto-approved, print the answer and exit.",
		Example: strings.Join([]string{
			"  intentrouter query \"who is sachin tendulkar\"",
			"  intentrouter query --debug \"write bubblesort in python\"",
		}, "\n"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), debug)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newMemoryCommand() *cobra.Command {
	memRoot := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the intent-keyed answer store",
	}

	var domain string
	list := &cobra.Command{
		Use:     "list",
		Short:   "List stored intent signatures",
		Example: "  intentrouter memory list --domain programming",
		RunE: func(cmd *cobra.Command, args []string) error {
			return memoryList(cmd, domain)
		},
	}
	list.Flags().StringVar(&domain, "domain", "", "Only list signatures in this domain")
	memRoot.AddCommand(list)

	memRoot.AddCommand(&cobra.Command{
		Use:     "show <signature>",
		Short:   "Show the stored record for one signature",
		Example: "  intentrouter memory show 'sports|explanation|sachin_tendulkar'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return memoryShow(cmd, args[0])
		},
	})

	return memRoot
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration, provider, and memory readiness",
		Example: "  intentrouter status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCmd(cmd)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  intentrouter version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion(func(format string, a ...any) { cmd.Printf(format, a...) })
			return nil
		},
	}
}
