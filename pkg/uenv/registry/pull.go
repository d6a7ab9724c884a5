package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/internal/subprocess"
)

// ErrCancelled is returned by PullTag when ctx is cancelled (typically by
// a caught SIGINT/SIGTERM) before the download completes. The caller is
// responsible for removing the partial destination directory and
// reporting the cancellation.
var ErrCancelled = errors.New("pull cancelled")

// pollInterval is how often the destination squashfs's size is sampled
// to drive the progress bar.
const pollInterval = 100 * time.Millisecond

// PullTag downloads rec's tag into destination, reporting progress
// against rec.SizeBytes by polling the size of destination/store.squashfs.
// With showProgress false no bar is drawn; the CLI passes false when
// colour is disabled (--no-color or NO_COLOR).
func (c *Client) PullTag(ctx context.Context, registryHost, namespace string, rec Record, destination string, creds *Credentials, showProgress bool) error {
	addr := address(registryHost, namespace, rec, ":", rec.Tag)
	args := append([]string{"pull", "--concurrency", "10", "--output", destination, addr}, credArgs(creds, "")...)

	c.Log.TraceF("run_oras: %s", subprocess.Redacted(c.BinaryPath, args))

	proc, err := subprocess.Cmd{Path: c.BinaryPath, Args: args}.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting oras pull: %w", err)
	}

	totalBytes := rec.SizeBytes
	sqfsPath := filepath.Join(destination, "store.squashfs")

	var progress *mpb.Progress
	var bar *mpb.Bar
	if showProgress && totalBytes > 0 {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(totalBytes,
			mpb.PrependDecorators(decor.Name(fmt.Sprintf("pulling %s/%s:%s", rec.Name, rec.Version, rec.Tag))),
			mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
		)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-proc.Done():
			break loop
		case <-ctx.Done():
			if bar != nil {
				bar.Abort(true)
			}
			<-proc.Done() // CommandContext already killed the child; reap it
			return ErrCancelled
		case <-ticker.C:
			if bar == nil {
				continue
			}
			if info, err := os.Stat(sqfsPath); err == nil {
				bar.SetCurrent(info.Size())
			}
		}
	}

	if bar != nil {
		bar.SetCurrent(totalBytes)
	}
	if progress != nil {
		progress.Wait()
	}

	res, err := proc.Wait()
	if err != nil {
		return fmt.Errorf("running oras pull: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("oras pull %s: %w", addr, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}
	return nil
}
