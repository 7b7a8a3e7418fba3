// Package main provides the CLI entrypoint for nback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nback/internal/config"
	"github.com/verte-zerg/nback/internal/engine"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/statsui"
	"github.com/verte-zerg/nback/internal/store"
	"github.com/verte-zerg/nback/internal/tui"
)

const (
	defaultMode        = string(model.ModeDual)
	defaultNLevel      = 2
	defaultTrials      = 20
	defaultDurationMs  = 2500
	defaultCurveWindow = 20
)

var (
	playMode       string
	playNLevel     int
	playTrials     int
	playDurationMs int
	playAudio      bool
	playNoAdaptive bool
	playRaiseAbove float64
	playLowerBelow float64

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nback",
		Short:         "TUI dual n-back trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playMode, "mode", defaultMode, "game mode: single-visual, single-audio, or dual")
	rootCmd.Flags().IntVar(&playNLevel, "n", defaultNLevel, "n-back level")
	rootCmd.Flags().IntVar(&playTrials, "trials", defaultTrials, "trials per session")
	rootCmd.Flags().IntVar(&playDurationMs, "duration-ms", defaultDurationMs, "stimulus duration in milliseconds")
	rootCmd.Flags().BoolVar(&playAudio, "audio", true, "show the letter cue during trials")
	rootCmd.Flags().BoolVar(&playNoAdaptive, "no-adaptive", false, "disable adaptive level adjustment between sessions")
	rootCmd.Flags().Float64Var(&playRaiseAbove, "raise-above", engine.DefaultRaiseAbove, "accuracy above which the level is raised")
	rootCmd.Flags().Float64Var(&playLowerBelow, "lower-below", engine.DefaultLowerBelow, "accuracy below which the level is lowered")

	rootCmd.AddCommand(newPracticeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &playMode, fileCfg.Game.Mode)
	applyIntConfig(cmd, "n", &playNLevel, fileCfg.Game.NLevel)
	applyIntConfig(cmd, "trials", &playTrials, fileCfg.Game.NumTrials)
	applyIntConfig(cmd, "duration-ms", &playDurationMs, fileCfg.Game.StimulusDurationMs)
	applyBoolConfig(cmd, "audio", &playAudio, fileCfg.Game.Audio)

	adaptive := engine.DefaultAdaptivePolicy()
	if adaptiveEnabled := fileCfg.Adaptive.Enabled; adaptiveEnabled != nil {
		adaptive.Enabled = *adaptiveEnabled
	}
	applyFloatConfig(cmd, "raise-above", &playRaiseAbove, fileCfg.Adaptive.RaiseAbove)
	applyFloatConfig(cmd, "lower-below", &playLowerBelow, fileCfg.Adaptive.LowerBelow)
	adaptive.RaiseAbove = playRaiseAbove
	adaptive.LowerBelow = playLowerBelow
	if playNoAdaptive {
		adaptive.Enabled = false
	}

	cfg := model.Config{
		Mode:               model.GameMode(playMode),
		NLevel:             playNLevel,
		NumTrials:          playTrials,
		StimulusDurationMs: playDurationMs,
		AudioEnabled:       playAudio,
	}
	if err := validateConfig(cfg, adaptive); err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	// The saved level carries adaptive progress across runs. An explicit
	// --n or configured value takes precedence.
	if adaptive.Enabled && !cmd.Flags().Changed("n") && fileCfg.Game.NLevel == nil {
		if saved, ok := loadSavedNLevel(st); ok {
			cfg.NLevel = saved
		}
	}

	eng := engine.New(cfg, adaptive, nil)
	program := tea.NewProgram(tui.NewModel(eng, st, adaptive), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadSavedNLevel(st *store.Store) (int, bool) {
	value, ok, err := st.GetPreference(context.Background(), store.PrefNLevel)
	if err != nil {
		logErrf("failed to load saved n level: %v\n", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		logErrf("ignoring invalid saved n level %q\n", value)
		return 0, false
	}
	return n, true
}

func newPracticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "practice",
		Short: "Run a short guided practice round",
		Args:  cobra.NoArgs,
		RunE:  runPracticeCmd,
	}
}

func runPracticeCmd(_ *cobra.Command, _ []string) error {
	eng := engine.New(model.Config{}, engine.AdaptivePolicy{}, nil)
	program := tea.NewProgram(tui.NewPracticeModel(eng), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	if statsMode != "" && !model.GameMode(statsMode).Valid() {
		return fmt.Errorf("invalid --mode value %q (use single-visual, single-audio, or dual)", statsMode)
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Mode:        statsMode,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nback configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# mode = %q             # Game mode: single-visual, single-audio, or dual
# n = %d                     # N-back level (adaptive adjustment overrides this)
# trials = %d               # Trials per session
# duration-ms = %d        # Stimulus duration in milliseconds
# audio = true              # Show the letter cue during trials

[adaptive]
# enabled = true            # Adjust the level between sessions
# raise-above = %.2f        # Raise the level when accuracy exceeds this
# lower-below = %.2f        # Lower the level when accuracy falls below this
`,
		defaultMode,
		defaultNLevel,
		defaultTrials,
		defaultDurationMs,
		engine.DefaultRaiseAbove,
		engine.DefaultLowerBelow,
	)
}

func validateConfig(cfg model.Config, adaptive engine.AdaptivePolicy) error {
	if !cfg.Mode.Valid() {
		return fmt.Errorf("--mode must be single-visual, single-audio, or dual")
	}
	if cfg.NLevel < 1 {
		return fmt.Errorf("--n must be >= 1")
	}
	if cfg.NumTrials < 0 {
		return fmt.Errorf("--trials must be >= 0")
	}
	if cfg.StimulusDurationMs <= 0 {
		return fmt.Errorf("--duration-ms must be > 0")
	}
	if adaptive.RaiseAbove < 0 || adaptive.RaiseAbove > 1 {
		return fmt.Errorf("--raise-above must be between 0 and 1")
	}
	if adaptive.LowerBelow < 0 || adaptive.LowerBelow > 1 {
		return fmt.Errorf("--lower-below must be between 0 and 1")
	}
	if adaptive.LowerBelow > adaptive.RaiseAbove {
		return fmt.Errorf("--lower-below must not exceed --raise-above")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
