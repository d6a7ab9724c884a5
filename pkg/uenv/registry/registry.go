// Package registry orchestrates an external oras-compatible binary to
// discover, pull and copy uenv images to and from an OCI-style registry.
// It never speaks the registry protocol itself: every operation is a
// child-process invocation whose command line is logged with
// credentials redacted.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eth-cscs/uenv/internal/errs"
	"github.com/eth-cscs/uenv/internal/logx"
	"github.com/eth-cscs/uenv/internal/subprocess"
	"github.com/eth-cscs/uenv/pkg/uenv/label"
)

// Record names the image a registry operation targets: the coordinate
// fields of a registry address, minus the registry host and namespace.
// Sha is populated only where the operation resolved a manifest digest
// (ListNamespace, Discover callers); it is blank for an address built
// purely from CLI arguments.
type Record struct {
	Name      string
	Version   string
	Tag       string
	System    string
	Uarch     string
	Sha       string
	SizeBytes int64
}

func (r Record) String() string {
	return (label.Label{Name: r.Name, Version: r.Version, Tag: r.Tag, System: r.System, Uarch: r.Uarch}).String()
}

// Credentials authenticates against the registry, passed through to
// oras verbatim.
type Credentials struct {
	Username string
	Token    string
}

// Client runs oras subcommands against one resolved binary path.
type Client struct {
	BinaryPath string
	Log        *logx.Logger
}

func New(binaryPath string, log *logx.Logger) *Client {
	return &Client{BinaryPath: binaryPath, Log: log}
}

func address(registryHost, namespace string, rec Record, sep, ref string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s%s%s", registryHost, namespace, rec.System, rec.Uarch, rec.Name, rec.Version, sep, ref)
}

func credArgs(creds *Credentials, prefix string) []string {
	if creds == nil {
		return nil
	}
	return []string{
		"--" + prefix + "password", creds.Token,
		"--" + prefix + "username", creds.Username,
	}
}

func (c *Client) run(ctx context.Context, args []string) (*subprocess.Result, error) {
	c.Log.TraceF("run_oras: %s", subprocess.Redacted(c.BinaryPath, args))
	return subprocess.Cmd{Path: c.BinaryPath, Args: args}.Run(ctx)
}

type discoverManifest struct {
	Digest string `json:"digest"`
}

type discoverOutput struct {
	Manifests []discoverManifest `json:"manifests"`
}

// Discover returns the digests oras reports for rec's tag.
func (c *Client) Discover(ctx context.Context, registryHost, namespace string, rec Record, creds *Credentials) ([]string, error) {
	addr := address(registryHost, namespace, rec, ":", rec.Tag)
	args := append([]string{"discover", "--format", "json", "--artifact-type", "uenv/meta", addr}, credArgs(creds, "")...)

	res, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("running oras discover: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("oras discover %s: %w", addr, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}

	var out discoverOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("parsing oras discover output: %w", err)
	}

	digests := make([]string, 0, len(out.Manifests))
	for _, m := range out.Manifests {
		digests = append(digests, m.Digest)
	}
	return digests, nil
}

// PullDigest downloads the manifest addressed by digest into destination.
func (c *Client) PullDigest(ctx context.Context, registryHost, namespace string, rec Record, digest, destination string, creds *Credentials) error {
	addr := address(registryHost, namespace, rec, "@", digest)
	args := append([]string{"pull", "--output", destination, addr}, credArgs(creds, "")...)

	res, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("running oras pull: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("oras pull %s: %w", addr, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}
	return nil
}

// Copy copies an image between two registry coordinates with both-sides
// credentials, invoking `oras cp --recursive`.
func (c *Client) Copy(ctx context.Context, registryHost, srcNamespace string, srcRec Record, dstNamespace string, dstRec Record, creds *Credentials) error {
	src := address(registryHost, srcNamespace, srcRec, ":", srcRec.Tag)
	dst := address(registryHost, dstNamespace, dstRec, ":", dstRec.Tag)

	args := []string{"cp", "--concurrency", "10", "--recursive", src, dst}
	args = append(args, credArgs(creds, "from-")...)
	args = append(args, credArgs(creds, "to-")...)

	res, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("running oras cp: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("oras cp %s -> %s: %w", src, dst, errs.NewRegistryError(res.ExitCode, res.Stderr))
	}
	return nil
}
