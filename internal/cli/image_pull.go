package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/internal/signalctl"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
	"github.com/eth-cscs/uenv/pkg/uenv/registry"
	"github.com/eth-cscs/uenv/pkg/uenv/store"
)

// EnvRegistryUsername and EnvRegistryToken pass credentials through to
// the external registry client untouched: uenv never handles auth
// itself beyond forwarding a username/token pair.
const (
	EnvRegistryUsername = "UENV_REGISTRY_USERNAME"
	EnvRegistryToken    = "UENV_REGISTRY_TOKEN"
)

func credentialsFromEnv() *registry.Credentials {
	token := os.Getenv(EnvRegistryToken)
	if token == "" {
		return nil
	}
	return &registry.Credentials{Username: os.Getenv(EnvRegistryUsername), Token: token}
}

func newImagePullCommand() *cobra.Command {
	var onlyMeta, force bool

	cmd := &cobra.Command{
		Use:   "pull <nslabel>",
		Short: "download a uenv image from a registry into the local repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())
			nsLbl, err := label.ParseUenvNsLabel(args[0])
			if err != nil {
				return err
			}
			if nsLbl.Namespace == "" {
				return fmt.Errorf("%q has no namespace: pull requires ns::label", args[0])
			}
			if nsLbl.Label.Name == "" || nsLbl.Label.Version == "" || nsLbl.Label.Tag == "" {
				return fmt.Errorf("%q must fully specify name/version:tag", args[0])
			}
			system, uarch, err := resolveSystemUarch(nsLbl.Label.System, nsLbl.Label.Uarch)
			if err != nil {
				return err
			}

			repo, err := openPrimary(s)
			if err != nil {
				return err
			}
			defer repo.Close()

			guard, ctx := signalctl.New(cmd.Context())
			defer guard.Stop()

			client := registry.New(orasPath(), s.Log)
			host := registryHost()
			creds := credentialsFromEnv()
			rec := registry.Record{Name: nsLbl.Label.Name, Version: nsLbl.Label.Version, Tag: nsLbl.Label.Tag, System: system, Uarch: uarch}

			digests, err := client.Discover(ctx, host, nsLbl.Namespace, rec, creds)
			if err != nil {
				return err
			}
			switch len(digests) {
			case 0:
				return fmt.Errorf("no manifest found for %s in namespace %s", rec, nsLbl.Namespace)
			case 1:
			default:
				return fmt.Errorf("%s is ambiguous in namespace %s: %d manifests found", rec, nsLbl.Namespace, len(digests))
			}
			sha := strings.TrimPrefix(digests[0], "sha256:")

			var sizeBytes int64
			if !force && repo.HasImage(sha) {
				s.Log.InfoF("%s already present locally, skipping download", sha[:16])
				if info, err := os.Stat(repo.UenvPaths(sha).Squashfs); err == nil {
					sizeBytes = info.Size()
				}
			} else {
				showProgress := !s.NoColor
				sizeBytes, err = pullImage(ctx, guard, client, host, nsLbl.Namespace, rec, digests[0], creds, repo, sha, onlyMeta, showProgress)
				if err != nil {
					return err
				}
			}

			row := store.Record{
				Sha: sha, Name: nsLbl.Label.Name, Version: nsLbl.Label.Version, Tag: nsLbl.Label.Tag,
				System: system, Uarch: uarch, Date: time.Now().UTC().Format("2006-01-02 15:04:05"), SizeBytes: sizeBytes,
			}
			if err := repo.InsertRow(row); err != nil {
				return err
			}
			s.Log.InfoF("pulled %s (%s)", row, row.ID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyMeta, "only-meta", false, "only fetch metadata, skip the squashfs payload")
	cmd.Flags().BoolVar(&force, "force", false, "re-download even if the image is already present locally")
	return cmd
}

// pullImage reserves the content-addressed image directory, downloads
// the metadata artifact by digest and (unless onlyMeta) the squashfs
// payload by tag with progress, and cleans up on cancellation: the
// partial directory is removed and the caught signal reported as an
// errs.CancellationError, which the entry point turns into a 128+N exit.
func pullImage(ctx context.Context, guard *signalctl.Guard, client *registry.Client, host, namespace string, rec registry.Record, digest string, creds *registry.Credentials, repo *store.Repository, sha string, onlyMeta, showProgress bool) (int64, error) {
	reserved, err := repo.ReserveImage(sha)
	if err != nil {
		return 0, err
	}

	abortOnCancel := func(cause error) (int64, error) {
		reserved.Abort()
		if sig := guard.Caught(); sig != 0 {
			return 0, errs.NewCancellationError(sig)
		}
		return 0, cause
	}

	if err := client.PullDigest(ctx, host, namespace, rec, digest, reserved.Paths.Store, creds); err != nil {
		if guard.Caught() != 0 {
			return abortOnCancel(err)
		}
		reserved.Abort()
		return 0, err
	}

	var sizeBytes int64
	if !onlyMeta {
		if err := client.PullTag(ctx, host, namespace, rec, reserved.Paths.Store, creds, showProgress); err != nil {
			if errors.Is(err, registry.ErrCancelled) || guard.Caught() != 0 {
				return abortOnCancel(err)
			}
			reserved.Abort()
			return 0, err
		}
		if info, statErr := os.Stat(reserved.Paths.Squashfs); statErr == nil {
			sizeBytes = info.Size()
		}
	}

	reserved.Release()
	return sizeBytes, nil
}
