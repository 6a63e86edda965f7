package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/config"
	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/session"
	"github.com/ivlev/procdoc/internal/system"
)

// defaultInputDir is searched for the newest recording when --video is not given.
const defaultInputDir = "input"

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Create and list documentation sessions",
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a session for a recording",
		RunE:  runSessionNew,
	}
	newCmd.Flags().String("video", "", "Recording to document (default: newest video in ./input)")
	newCmd.Flags().StringP("moments", "m", "", "Import moment records from a YAML or JSON file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE:  runSessionList,
	}

	sessionCmd.AddCommand(newCmd, listCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	videoPath, _ := cmd.Flags().GetString("video")
	momentsPath, _ := cmd.Flags().GetString("moments")

	videoPath, err := resolveVideo(videoPath)
	if err != nil {
		return err
	}

	return withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		sess := session.New(videoPath)
		if momentsPath != "" {
			if _, err := importRecords(sess, momentsPath); err != nil {
				return fmt.Errorf("import moments: %w", err)
			}
		}

		if err := s.Create(cmd.Context(), sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		if jsonOutput() {
			printJSON(map[string]any{
				"id":      sess.ID,
				"video":   sess.VideoPath,
				"moments": sess.Moments.Len(),
			})
			return nil
		}
		fmt.Printf("[*] Session %s created for %s (%d moments)\n", sess.ID, sess.VideoPath, sess.Moments.Len())
		return nil
	})
}

func runSessionList(cmd *cobra.Command, args []string) error {
	return withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		list, err := s.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if jsonOutput() {
			if list == nil {
				list = []session.Info{}
			}
			printJSON(list)
			return nil
		}
		renderSessions(os.Stdout, list)
		return nil
	})
}

func resolveVideo(path string) (string, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("video path: %w", err)
		}
		return abs, nil
	}

	latest, err := system.FindLatestVideo(defaultInputDir)
	if err != nil {
		return "", fmt.Errorf("find recording: %w; pass --video or put a recording in %s/", err, defaultInputDir)
	}
	abs, _ := filepath.Abs(latest)
	fmt.Printf("[*] Selected recording: %s\n", abs)
	return abs, nil
}

// importRecords adds every record in path to sess. Records with an unknown
// kind are skipped and logged.
func importRecords(sess *session.Session, path string) (int, error) {
	records, err := moments.ReadRecords(path)
	if err != nil {
		return 0, err
	}

	added := 0
	for i, r := range records {
		if _, err := sess.AddRecord(r); err != nil {
			log.Printf("[!] Skipping record %d: %v", i+1, err)
			continue
		}
		added++
	}
	log.Printf("[*] Imported %d of %d moments from %s", added, len(records), path)
	return added, nil
}
