package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/session"
	"github.com/ivlev/procdoc/internal/source"
	"github.com/ivlev/procdoc/internal/system"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import, commit, extract and assemble in one go without storing a session",
		RunE:  runOneShot,
	}
	cmd.Flags().String("video", "", "Recording to document (default: newest video in ./input)")
	cmd.Flags().StringP("moments", "m", "", "Moment records, YAML or JSON")
	cmd.Flags().IntP("workers", "w", 0, "Parallel decoders (default from config)")
	addDocumentFlags(cmd)
	cmd.MarkFlagRequired("moments")
	cmd.MarkFlagRequired("text")

	RootCmd.AddCommand(cmd)
}

func runOneShot(cmd *cobra.Command, args []string) error {
	videoPath, _ := cmd.Flags().GetString("video")
	momentsPath, _ := cmd.Flags().GetString("moments")
	textPath, _ := cmd.Flags().GetString("text")
	workers, _ := cmd.Flags().GetInt("workers")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if _, err := system.CheckBinary(cfg.FFmpeg); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	batch, err := newBatch(cfg)
	if err != nil {
		return err
	}

	text, err := readInput(textPath)
	if err != nil {
		return fmt.Errorf("read document text: %w", err)
	}

	videoPath, err = resolveVideo(videoPath)
	if err != nil {
		return err
	}
	sess := session.New(videoPath)
	if _, err := importRecords(sess, momentsPath); err != nil {
		return fmt.Errorf("import moments: %w", err)
	}
	if _, err := sess.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	ctx := cmd.Context()
	v, err := source.OpenFile(ctx, sess.VideoPath, cfg.FFprobe)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	warnPastEnd(sess.Committed, v.Duration())

	fmt.Printf("[*] Extracting %d frames with %d workers\n", len(sess.Committed), cfg.Workers)
	if _, err := sess.Extract(ctx, batch, v); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	nodes, err := sess.Assemble(text)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	res, err := writeDocument(cmd, cfg, sess.ID, sess.OutputName(), nodes, len(sess.Frames))
	if err != nil {
		return err
	}
	printDocumentResult(res)
	return nil
}
