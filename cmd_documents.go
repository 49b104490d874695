package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"themedmark/highlighter"
	"themedmark/logging"
	"themedmark/mode"
	"themedmark/model"
	"themedmark/rewrite"
	"themedmark/scheme"
	"themedmark/storage"
	"themedmark/watcher"
)

var (
	modeFlag   string
	writeBack  bool
	lightColor string
	darkColor  string
)

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)

// stderrNotifier prints user notices on stderr.
func stderrNotifier(w io.Writer) highlighter.Notifier {
	return highlighter.NotifierFunc(func(msg string) {
		fmt.Fprintln(w, noticeStyle.Render(msg))
	})
}

// resolveMode parses --mode, or samples the terminal when it is not set.
func resolveMode(cmd *cobra.Command) (model.Mode, error) {
	if !cmd.Flags().Changed("mode") {
		return mode.NewDetector(mode.NewTerminalState(cmd.OutOrStdout())).Mode(), nil
	}
	m, ok := model.ParseMode(modeFlag)
	if !ok {
		return model.Dark, fmt.Errorf("invalid --mode %q: want light or dark", modeFlag)
	}
	return m, nil
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Recolor the highlights of a local file for a display mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		m, err := resolveMode(cmd)
		if err != nil {
			return err
		}

		path := args[0]
		in, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read document", "document", path, "err", err)
			return err
		}

		out, warnings := rewrite.Rewrite(string(in), cfg.Schemes, m)
		for _, w := range warnings {
			logger.Warn("failed to match highlight styles",
				"document", path, "raw", w.Raw, "token", w.Token, "color", w.Color, "reason", w.Reason)
		}

		if !writeBack {
			_, err := io.WriteString(cmd.OutOrStdout(), out)
			return err
		}
		if out == string(in) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			logger.Error("failed to update document", "document", path, "err", err)
			return err
		}
		return nil
	},
}

var highlightCmd = &cobra.Command{
	Use:   "highlight <scheme> <text>",
	Short: "Print the highlight markup for text in the given scheme",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		registry := scheme.NewRegistry(cfg.Schemes)
		hl := highlighter.New(registry, nil, func() model.Mode { return m }, nil, nil)
		fragment, err := hl.Highlight(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fragment)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <document>",
	Short: "Keep one stored document in step with the terminal's background",
	Long: "Open a document from the data directory's store, normalize it to the terminal's\n" +
		"current background, and rewrite it whenever the background flips between light and dark.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		interval, err := cfg.Interval()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Store, cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open %s store: %w", cfg.Store, err)
		}
		defer store.Close()

		detector := mode.NewDetector(mode.NewTerminalState(cmd.OutOrStdout()))
		registry, _ := newRegistry(cfg, logger)
		hl := highlighter.New(registry, store, detector.Mode, stderrNotifier(cmd.ErrOrStderr()),
			logging.Component(logger, "rewrite"))

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := hl.Open(ctx, args[0]); err != nil {
			return err
		}

		w := watcher.New(detector.Mode, hl.ModeChanged,
			watcher.WithInterval(interval),
			watcher.WithLogger(logging.Component(logger, "watcher")),
		)
		w.Start(ctx)
		<-ctx.Done()
		w.Stop()
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rewriteCmd, highlightCmd} {
		c.Flags().StringVar(&modeFlag, "mode", "", "Display mode: light or dark (default: detect from terminal)")
	}
	rewriteCmd.Flags().BoolVarP(&writeBack, "write", "w", false, "Write the result back to the file instead of stdout")
	watchCmd.Flags().StringVar(&storeKind, "store", string(storage.KindFS), "Document store: fs or sqlite")
	watchCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "How often the terminal background is sampled")
}
