package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

func newImageAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <label> <squashfs>",
		Short: "register a squashfs file under the given label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())
			lbl, err := label.ParseUenvLabel(args[0])
			if err != nil {
				return err
			}
			sqfsPath := args[1]

			info, err := os.Stat(sqfsPath)
			if err != nil {
				return errs.NewIOError(sqfsPath, err)
			}
			if lbl.Name == "" {
				return fmt.Errorf("label %q has no name", args[0])
			}
			if lbl.Version == "" || lbl.Tag == "" {
				return fmt.Errorf("label %q must specify a version and a tag", args[0])
			}

			system, uarch, err := resolveSystemUarch(lbl.System, lbl.Uarch)
			if err != nil {
				return err
			}

			repo, err := openPrimary(s)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			sha, err := store.Sha256File(ctx, sqfsPath)
			if err != nil {
				return err
			}

			rec := store.Record{
				Sha: sha, Name: lbl.Name, Version: lbl.Version, Tag: lbl.Tag,
				System: system, Uarch: uarch,
				Date:      time.Now().UTC().Format("2006-01-02 15:04:05"),
				SizeBytes: info.Size(),
			}

			if err := repo.Add(ctx, rec, sqfsPath); err != nil {
				return err
			}
			s.Log.InfoF("added %s (%s)", rec, rec.ID())
			return nil
		},
	}
	return cmd
}
