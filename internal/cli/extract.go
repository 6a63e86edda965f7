package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/engine"
	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/source"
	"github.com/ivlev/procdoc/internal/system"
	"github.com/ivlev/procdoc/internal/timecode"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one screenshot per committed moment",
		RunE:  runExtract,
	}
	cmd.Flags().StringP("out", "o", "", "Frames directory (default: <output_dir>/<session>/frames)")
	cmd.Flags().IntP("workers", "w", 0, "Parallel decoders (default from config)")

	RootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	workers, _ := cmd.Flags().GetInt("workers")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if _, err := system.CheckBinary(cfg.FFmpeg); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	batch, err := newBatch(cfg)
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sess, err := loadSession(ctx, s)
	if err != nil {
		return err
	}
	if out == "" {
		out = filepath.Join(cfg.OutputDir, sess.ID, "frames")
	}

	v, err := source.OpenFile(ctx, sess.VideoPath, cfg.FFprobe)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	warnPastEnd(sess.Committed, v.Duration())

	fmt.Printf("[*] Extracting %d frames with %d workers\n", len(sess.Committed), cfg.Workers)
	frames, err := sess.Extract(ctx, batch, v)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if err := engine.WriteManifest(out, sess.VideoPath, frames); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	if err := s.SetFramesDir(ctx, sess.ID, out); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := saveSession(ctx, s, sess); err != nil {
		return err
	}

	if jsonOutput() {
		printJSON(map[string]any{
			"session":    sess.ID,
			"frames":     len(frames),
			"moments":    len(sess.Committed),
			"dropped":    len(sess.Committed) - len(frames),
			"frames_dir": out,
		})
		return nil
	}
	fmt.Printf("[+++] Extracted %d/%d frames to %s\n", len(frames), len(sess.Committed), out)
	return nil
}

// warnPastEnd logs moments beyond the probed length of the recording. They
// are still attempted and dropped by the extractor.
func warnPastEnd(list []moments.Moment, duration timecode.TimeCode) {
	if duration.Seconds() <= 0 {
		return
	}
	for _, m := range list {
		if timecode.Compare(m.Time, duration) > 0 {
			log.Printf("[!] Moment %d at %s is past the end of the recording (%s)", m.ID, m.Time, duration)
		}
	}
}
