// Package main provides the CLI entrypoint for qflip.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/qflip/internal/config"
	"github.com/verte-zerg/qflip/internal/flipper"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/quantum"
	"github.com/verte-zerg/qflip/internal/session"
	"github.com/verte-zerg/qflip/internal/stats"
	"github.com/verte-zerg/qflip/internal/statsui"
	"github.com/verte-zerg/qflip/internal/store"
	"github.com/verte-zerg/qflip/internal/tui"
)

const (
	defaultCurveWindow = 20
	defaultHistoryLast = 10
	defaultLogLevel    = "warn"
)

var (
	flipHistorySize int
	flipDelay       time.Duration
	flipSettleDelay time.Duration
	flipSeed        int64
	flipNoStore     bool

	flipCount   int
	flipNoDelay bool

	historyLast int

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	resetYes bool

	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "qflip",
		Short:             "Quantum coin flip in the terminal",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
		RunE:              runPlayCmd,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	addFlipFlags(rootCmd)

	rootCmd.AddCommand(newFlipCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addFlipFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flipHistorySize, "history-size", session.DefaultHistorySize, "number of flips kept in the session history")
	cmd.Flags().DurationVar(&flipDelay, "flip-delay", flipper.DefaultFlipDelay, "superposition animation before the result is revealed")
	cmd.Flags().DurationVar(&flipSettleDelay, "settle-delay", flipper.DefaultSettleDelay, "time the result stays on screen")
	cmd.Flags().Int64Var(&flipSeed, "seed", 0, "simulator seed (0 seeds from the clock)")
	cmd.Flags().BoolVar(&flipNoStore, "no-store", false, "do not save flips to the database")
}

// settings bundles the config file with environment overrides applied.
type settings struct {
	file config.FileConfig
	env  config.EnvConfig
}

func loadSettings() (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	return settings{file: fileCfg.Merge(envCfg), env: envCfg}, nil
}

func (s settings) dbPath() string {
	return config.ResolveDBPath(s.env.DBPath)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "log-level", &logLevel, s.file.Log.Level)
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "qflip",
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	return nil
}

// resolveFlipConfig layers flags over environment over file over defaults.
func resolveFlipConfig(cmd *cobra.Command, s settings) (model.Config, error) {
	fc := s.file.Flip
	applyIntConfig(cmd, "history-size", &flipHistorySize, fc.HistorySize)
	applyDurationConfig(cmd, "flip-delay", &flipDelay, fc.FlipDelay)
	applyDurationConfig(cmd, "settle-delay", &flipSettleDelay, fc.SettleDelay)
	applyInt64Config(cmd, "seed", &flipSeed, fc.Seed)
	if fc.Store != nil && !cmd.Flags().Changed("no-store") {
		flipNoStore = !*fc.Store
	}

	cfg := model.Config{
		HistorySize: flipHistorySize,
		FlipDelay:   flipDelay,
		SettleDelay: flipSettleDelay,
		Seed:        flipSeed,
		Store:       !flipNoStore,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// flipRuntime is everything a flip command needs, opened from a resolved config.
type flipRuntime struct {
	orch  *flipper.Orchestrator
	store *store.Store
}

func openFlipRuntime(ctx context.Context, cfg model.Config, dbPath string) (*flipRuntime, error) {
	sim := quantum.NewSimulator(cfg.Seed)
	opts := []flipper.Option{flipper.WithLogger(log.Default())}
	rt := &flipRuntime{}
	if cfg.Store {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		sid, err := st.StartSession(ctx, model.SessionInfo{
			StartedAt:   time.Now(),
			Source:      sim.Name(),
			HistorySize: cfg.HistorySize,
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
		rt.store = st
		opts = append(opts, flipper.WithRecorder(st, sid))
	}
	rt.orch = flipper.New(sim, session.NewTracker(cfg.HistorySize), flipper.Config{
		FlipDelay:   cfg.FlipDelay,
		SettleDelay: cfg.SettleDelay,
	}, opts...)
	return rt, nil
}

func (rt *flipRuntime) Close() {
	if rt.store == nil {
		return
	}
	if cerr := rt.store.Close(); cerr != nil {
		log.Warn("failed to close db", "err", cerr)
	}
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := resolveFlipConfig(cmd, s)
	if err != nil {
		return err
	}
	rt, err := openFlipRuntime(cmd.Context(), cfg, s.dbPath())
	if err != nil {
		return err
	}
	defer rt.Close()

	m := tui.NewModel(cmd.Context(), rt.orch, rt.store, log.Default())
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newFlipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flip",
		Short: "Flip without the TUI and print each result",
		Args:  cobra.NoArgs,
		RunE:  runFlipCmd,
	}
	addFlipFlags(cmd)
	cmd.Flags().IntVar(&flipCount, "count", 1, "number of flips")
	cmd.Flags().BoolVar(&flipNoDelay, "no-delay", false, "skip the presentation delays")
	return cmd
}

func runFlipCmd(cmd *cobra.Command, _ []string) error {
	if flipCount < 1 {
		return fmt.Errorf("--count must be >= 1")
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := resolveFlipConfig(cmd, s)
	if err != nil {
		return err
	}
	if flipNoDelay {
		cfg.FlipDelay = 0
		cfg.SettleDelay = 0
	}
	rt, err := openFlipRuntime(cmd.Context(), cfg, s.dbPath())
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	for i := 1; i <= flipCount; i++ {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		result, ok := rt.orch.Flip(cmd.Context())
		if !ok {
			if _, err := fmt.Fprintf(out, "#%d %s\n", i, rt.orch.Message()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			continue
		}
		if _, err := fmt.Fprintln(out, formatFlipLine(i, result.Label.String(), result.ProbabilityOfZero, result.Timestamp)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return writeSessionSummary(cmd, rt.orch.Snapshot())
}

func formatFlipLine(n int, label string, probZero float64, at time.Time) string {
	return fmt.Sprintf("#%d %-5s P(|0⟩)=%.2f %s", n, label, probZero, at.Local().Format("15:04:05"))
}

func writeSessionSummary(cmd *cobra.Command, snap session.Snapshot) error {
	s := snap.Stats
	lines := []string{
		"",
		fmt.Sprintf("Total Flips: %d", s.TotalFlips),
		fmt.Sprintf("Heads: %d (%.1f%%)", s.HeadsCount, s.HeadsPct()),
		fmt.Sprintf("Tails: %d (%.1f%%)", s.TailsCount, s.TailsPct()),
		fmt.Sprintf("Current Streak: %d", s.CurrentStreak),
		fmt.Sprintf("Longest Streak: %d", s.LongestStreak),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent stored flips",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "number of flips to show")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 1 {
		return fmt.Errorf("--last must be >= 1")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	flips, err := st.ListFlips(cmd.Context(), model.StatsConfig{Last: historyLast})
	if err != nil {
		return fmt.Errorf("failed to load flips: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), flips, historyLast)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N flips")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "rolling heads ratio window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print to stdout instead of opening the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := parseStatsConfig(statsSince, statsLast, statsCurveWindow)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		return renderPlainStats(cmd, st, cfg)
	}
	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func parseStatsConfig(since string, last, window int) (model.StatsConfig, error) {
	var sinceTime *time.Time
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{Since: sinceTime, Last: last, CurveWindow: window}, nil
}

func renderPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	if len(report.Flips) == 0 {
		return nil
	}
	if err := stats.RenderHistory(out, report.Flips, defaultHistoryLast); err != nil {
		return err
	}
	return stats.RenderCurves(out, report.Flips, cfg.CurveWindow, 0, 0, false)
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored sessions and flips",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deletion")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("refusing to delete stored flips without --yes")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset db: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Deleted all stored flips.")
	return err
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
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(s.dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		log.Warn("failed to close db", "err", cerr)
	}
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

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# qflip configuration
# Uncomment a value to enable it.
# CLI flags override QFLIP_* environment variables, which override this file.

[flip]
# history-size = %d       # Flips kept in the session history panel
# flip-delay = %q       # Superposition animation before the reveal
# settle-delay = %q       # Time the result stays on screen
# seed = 0                # Simulator seed (0 seeds from the clock)
# store = true            # Save flips to the database

[log]
# level = %q            # debug, info, warn or error
`,
		session.DefaultHistorySize,
		flipper.DefaultFlipDelay.String(),
		flipper.DefaultSettleDelay.String(),
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.HistorySize < 1 {
		return fmt.Errorf("--history-size must be >= 1")
	}
	if cfg.FlipDelay < 0 {
		return fmt.Errorf("--flip-delay must be >= 0")
	}
	if cfg.SettleDelay < 0 {
		return fmt.Errorf("--settle-delay must be >= 0")
	}
	return nil
}
