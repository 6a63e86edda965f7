package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/session"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "commit",
		Short: "Apply pending deletions and freeze the moment timeline",
		RunE:  runCommit,
	})
}

func runCommit(cmd *cobra.Command, args []string) error {
	var list []moments.Moment
	sess, err := withSession(cmd, func(sess *session.Session) error {
		l, err := sess.Commit()
		list = l
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput() {
		printJSON(map[string]any{
			"session": sess.ID,
			"state":   sess.State,
			"moments": list,
		})
		return nil
	}
	fmt.Printf("[*] Committed %d moments\n", len(list))
	renderMoments(os.Stdout, sess, false)
	return nil
}
