package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/clipboard"
	"github.com/ivlev/procdoc/internal/config"
	"github.com/ivlev/procdoc/internal/document"
	"github.com/ivlev/procdoc/internal/renderer"
	"github.com/ivlev/procdoc/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Bind generated procedure text to the extracted screenshots",
		RunE:  runAssemble,
	}
	addDocumentFlags(cmd)
	cmd.MarkFlagRequired("text")

	RootCmd.AddCommand(cmd)
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("text", "t", "", "Generated document text, '-' for stdin")
	cmd.Flags().StringP("out", "o", "", "Output directory (default: <output_dir>/<session>)")
	cmd.Flags().Bool("copy", false, "Copy the Markdown to the clipboard")
	cmd.Flags().String("link", "", "Link to the recording, embedded as a QR code")
}

type documentResult struct {
	Session  string `json:"session"`
	Document string `json:"document"`
	document.Summary
	Copied bool `json:"copied"`
}

func runAssemble(cmd *cobra.Command, args []string) error {
	textPath, _ := cmd.Flags().GetString("text")

	text, err := readInput(textPath)
	if err != nil {
		return fmt.Errorf("read document text: %w", err)
	}

	return withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		sess, err := loadSession(cmd.Context(), s)
		if err != nil {
			return err
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
	})
}

// writeDocument renders nodes to <out>/<name> and handles --copy.
func writeDocument(cmd *cobra.Command, cfg *config.Config, id, name string, nodes []document.ResolvedNode, frameCount int) (documentResult, error) {
	out, _ := cmd.Flags().GetString("out")
	copyOut, _ := cmd.Flags().GetBool("copy")
	link, _ := cmd.Flags().GetString("link")

	if out == "" {
		out = filepath.Join(cfg.OutputDir, id)
	}
	if link == "" {
		link = cfg.SourceLink
	}

	r := renderer.NewMarkdown(link)
	if cfg.AssetsDir != "" {
		r.AssetsDir = cfg.AssetsDir
	}
	path, content, err := r.WriteFile(out, name, nodes)
	if err != nil {
		return documentResult{}, fmt.Errorf("write document: %w", err)
	}

	res := documentResult{
		Session:  id,
		Document: path,
		Summary:  document.Summarize(nodes, frameCount),
	}
	if copyOut {
		if err := clipboard.WriteAll(string(content)); err != nil {
			log.Printf("[!] Copy to clipboard failed: %v", err)
		} else {
			res.Copied = true
		}
	}
	return res, nil
}

func printDocumentResult(res documentResult) {
	if jsonOutput() {
		printJSON(res)
		return
	}
	if res.Missing > 0 {
		fmt.Printf("[!] %d screenshot references have no frame\n", res.Missing)
	}
	if res.Copied {
		fmt.Println("[*] Markdown copied to clipboard")
	}
	fmt.Printf("[+++] Done! %d/%d screenshots placed: %s\n", res.Bound, res.Screenshots, res.Document)
}
