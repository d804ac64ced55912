package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"intentrouter/pkg/config"
	"intentrouter/pkg/intent"
	"intentrouter/pkg/judge"
	"intentrouter/pkg/logger"
	"intentrouter/pkg/memory"
	"intentrouter/pkg/providers"
	"intentrouter/pkg/router"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "intentrouter"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion(out func(format string, a ...any)) {
	out("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		out("  Build: %s\n", build)
	}
	if goVer != "" {
		out("  Go: %s\n", goVer)
	}
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".intentrouter", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// runtimeDeps bundles everything a command needs beyond flag parsing.
type runtimeDeps struct {
	cfg   *config.Config
	log   *zap.Logger
	store memory.Store
	orch  *router.Orchestrator
}

func (r *runtimeDeps) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.log != nil {
		_ = r.log.Sync()
	}
}

// buildRuntime loads config and wires providers, intent pipeline, judge
// and memory into an orchestrator. Generators with missing credentials
// are still built; they degrade to error-tagged output at call time and
// the judge screens them out.
func buildRuntime(debug bool, feedback router.FeedbackPort) (*runtimeDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(debug || cfg.Logging.Debug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	generators, err := providers.BuildAll(cfg)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	judgeGen, err := providers.CreateGenerator(cfg.Router.JudgeProvider, cfg)
	if err != nil {
		return nil, fmt.Errorf("build judge provider: %w", err)
	}
	primaryGen, err := providers.CreateGenerator(cfg.Router.IntentProvider, cfg)
	if err != nil {
		return nil, fmt.Errorf("build intent provider: %w", err)
	}
	fallbackGen, err := providers.CreateGenerator(cfg.Router.IntentFallback, cfg)
	if err != nil {
		return nil, fmt.Errorf("build intent fallback provider: %w", err)
	}

	store, err := memory.Open(cfg.Memory.Backend, cfg.MemoryPath(), log)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	orch, err := router.New(router.Options{
		Classifier:    intent.NewClassifier(primaryGen, log),
		Extractor:     intent.NewExtractor(primaryGen, fallbackGen, log),
		Matcher:       intent.NewMatcher(judgeGen, log),
		Judge:         judge.New(judgeGen, log),
		Generators:    generators,
		Store:         store,
		Feedback:      feedback,
		FanoutTimeout: time.Duration(cfg.Router.FanoutTimeout) * time.Second,
		Log:           log,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, log: log, store: store, orch: orch}, nil
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
