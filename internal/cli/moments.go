package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/procdoc/internal/config"
	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/session"
	"github.com/ivlev/procdoc/internal/timecode"
)

func init() {
	momentsCmd := &cobra.Command{
		Use:     "moments",
		Aliases: []string{"m"},
		Short:   "Review and edit the key moments of a session",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add moment records from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runMomentsImport,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the live moments as records (format from the extension)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMomentsExport,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a moment",
		RunE:  runMomentsAdd,
	}
	addCmd.Flags().String("at", "", "Timestamp, M:SS or H:MM:SS")
	addCmd.Flags().String("kind", string(moments.KindAction), "navigation, action, data_entry, decision or submission")
	addCmd.Flags().String("desc", "", "What happens at this moment")
	addCmd.Flags().String("path", "", "Navigation path, for navigation moments")
	addCmd.MarkFlagRequired("at")

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a moment",
		Args:  cobra.ExactArgs(1),
		RunE:  runMomentsEdit,
	}
	editCmd.Flags().String("at", "", "New timestamp")
	editCmd.Flags().String("kind", "", "New kind")
	editCmd.Flags().String("desc", "", "New description")
	editCmd.Flags().String("path", "", "New navigation path")

	rmCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Mark moments for deletion until the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMomentsRm,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <id>...",
		Short: "Undo rm for moments not yet committed",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMomentsRestore,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List moments in time order",
		RunE:  runMomentsList,
	}
	listCmd.Flags().BoolP("all", "a", false, "Include moments marked for deletion")

	momentsCmd.AddCommand(importCmd, exportCmd, addCmd, editCmd, rmCmd, restoreCmd, listCmd)
	RootCmd.AddCommand(momentsCmd)
}

// withSession loads the current session, applies fn and saves the result.
func withSession(cmd *cobra.Command, fn func(sess *session.Session) error) (*session.Session, error) {
	var out *session.Session
	err := withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		sess, err := loadSession(cmd.Context(), s)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		if err := saveSession(cmd.Context(), s, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func runMomentsImport(cmd *cobra.Command, args []string) error {
	var added int
	sess, err := withSession(cmd, func(sess *session.Session) error {
		n, err := importRecords(sess, args[0])
		added = n
		return err
	})
	if err != nil {
		return err
	}
	report(sess, fmt.Sprintf("imported %d moments", added))
	return nil
}

func runMomentsExport(cmd *cobra.Command, args []string) error {
	return withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		sess, err := loadSession(cmd.Context(), s)
		if err != nil {
			return err
		}
		live := moments.Sorted(sess.Moments.Live())
		records := make([]moments.Record, len(live))
		for i, m := range live {
			records[i] = moments.ToRecord(m)
		}
		if err := moments.WriteRecords(args[0], records); err != nil {
			return fmt.Errorf("export moments: %w", err)
		}
		report(sess, fmt.Sprintf("exported %d moments to %s", len(records), args[0]))
		return nil
	})
}

func runMomentsAdd(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetString("at")
	kind, _ := cmd.Flags().GetString("kind")
	desc, _ := cmd.Flags().GetString("desc")
	path, _ := cmd.Flags().GetString("path")

	r := moments.Record{Timestamp: at, Kind: kind, Description: desc}
	if path != "" {
		r.NavigationPath = &path
	}
	// Typed timestamps are checked strictly; imported ones degrade to 0:00.
	if _, err := timecode.ParseStrict(at); err != nil {
		return fmt.Errorf("add moment: %w", err)
	}

	var added moments.Moment
	sess, err := withSession(cmd, func(sess *session.Session) error {
		m, err := sess.AddRecord(r)
		added = m
		return err
	})
	if err != nil {
		return err
	}
	report(sess, fmt.Sprintf("added moment %d at %s", added.ID, added.Time))
	return nil
}

func runMomentsEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var f moments.Fields
	if cmd.Flags().Changed("at") {
		v, _ := cmd.Flags().GetString("at")
		tc, err := timecode.ParseStrict(v)
		if err != nil {
			return fmt.Errorf("edit moment: %w", err)
		}
		f.Time = &tc
	}
	if cmd.Flags().Changed("kind") {
		v, _ := cmd.Flags().GetString("kind")
		k, err := moments.ParseKind(v)
		if err != nil {
			return fmt.Errorf("edit moment: %w", err)
		}
		f.Kind = &k
	}
	if cmd.Flags().Changed("desc") {
		v, _ := cmd.Flags().GetString("desc")
		f.Description = &v
	}
	if cmd.Flags().Changed("path") {
		v, _ := cmd.Flags().GetString("path")
		f.NavigationPath = &v
	}

	sess, err := withSession(cmd, func(sess *session.Session) error {
		_, err := sess.Edit(id, f)
		return err
	})
	if err != nil {
		return err
	}
	report(sess, fmt.Sprintf("edited moment %d", id))
	return nil
}

func runMomentsRm(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	sess, err := withSession(cmd, func(sess *session.Session) error {
		return sess.Delete(ids...)
	})
	if err != nil {
		return err
	}
	report(sess, fmt.Sprintf("marked %d moments for deletion", len(ids)))
	return nil
}

func runMomentsRestore(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	sess, err := withSession(cmd, func(sess *session.Session) error {
		sess.Restore(ids...)
		return nil
	})
	if err != nil {
		return err
	}
	report(sess, fmt.Sprintf("restored %d moments", len(ids)))
	return nil
}

func runMomentsList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	return withStore(func(cfg *config.Config, s *session.SQLiteStore) error {
		sess, err := loadSession(cmd.Context(), s)
		if err != nil {
			return err
		}
		if jsonOutput() {
			list := sess.Moments.Live()
			if all {
				list = sess.Moments.All()
			}
			printJSON(map[string]any{
				"session": sess.ID,
				"state":   sess.State,
				"moments": moments.Sorted(list),
				"deleted": sess.Moments.Deleted(),
			})
			return nil
		}
		renderMoments(os.Stdout, sess, all)
		return nil
	})
}

// report prints the outcome of a mutating command.
func report(sess *session.Session, msg string) {
	if jsonOutput() {
		printJSON(map[string]any{
			"session": sess.ID,
			"state":   sess.State,
			"result":  msg,
			"live":    sess.Moments.Len(),
			"deleted": sess.Moments.Deleted(),
		})
		return
	}
	fmt.Printf("[*] %s: %s (%d live moments, state %s)\n", sess.ID, msg, sess.Moments.Len(), sess.State)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("moment id: %q is not a moment id", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
