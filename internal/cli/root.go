// Package cli implements the procdoc commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/analyzer"
	"github.com/ivlev/procdoc/internal/config"
	"github.com/ivlev/procdoc/internal/engine"
	"github.com/ivlev/procdoc/internal/session"
	"github.com/ivlev/procdoc/internal/video"
)

var (
	dbPath      string
	configPath  string
	formatFlag  string
	sessionFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "procdoc",
	Short: "Turn screen recordings into step-by-step process documentation",
	Long: "procdoc keeps a list of key moments for a screen recording, extracts one screenshot per moment " +
		"and binds them to generated procedure text, producing a Markdown document.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $PROCDOC_DB or ~/.procdoc/sessions.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session ID (default: most recent session)")
}

func loadConfig() (*config.Config, error) {
	config.LoadEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.SessionDB = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*session.SQLiteStore, error) {
	s, err := session.NewSQLiteStore(cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// withStore loads the config, opens the session database and hands both to
// fn. The database is closed when fn returns, on every path.
func withStore(fn func(cfg *config.Config, s *session.SQLiteStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cfg, s)
}

// loadSession returns the session named by --session, or the newest one.
func loadSession(ctx context.Context, s *session.SQLiteStore) (*session.Session, error) {
	id := sessionFlag
	if id == "" {
		list, err := s.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("load session: %w: no sessions yet, run 'procdoc session new'", session.ErrNotFound)
		}
		id = list[0].ID
	}

	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func saveSession(ctx context.Context, s *session.SQLiteStore, sess *session.Session) error {
	if err := s.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// newBatch wires the ffmpeg extractor described by cfg into a frame batch.
func newBatch(cfg *config.Config) (*engine.Batch, error) {
	detector, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}

	ex := video.NewFFmpegExtractor(cfg.FFmpeg)
	ex.Timeout = cfg.ExtractTimeout
	ex.MaxWidth = cfg.MaxFrameWidth
	ex.Detector = detector

	return engine.NewBatch(ex, cfg.Workers), nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func jsonOutput() bool { return formatFlag == "json" }

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
