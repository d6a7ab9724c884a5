package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eth-cscs/uenv/pkg/uenv/label"
	"github.com/eth-cscs/uenv/pkg/uenv/registry"
)

// defaultFindNamespace is the namespace "image find" searches when -n is
// not given.
const defaultFindNamespace = "deploy"

// newImageFindCommand implements "image find": unlike "image ls", this
// searches what is pullable rather than what is already present locally,
// by listing the registry namespace's repositories and tags and
// filtering the resulting records against the search term.
func newImageFindCommand() *cobra.Command {
	var namespace string
	var noHeader bool

	cmd := &cobra.Command{
		Use:   "find [label]",
		Short: "search for uenv that can be pulled from a registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())

			var lbl label.Label
			if len(args) == 1 {
				parsed, err := label.ParseUenvLabel(args[0])
				if err != nil {
					return err
				}
				lbl = *parsed
			}
			if lbl.System == "" {
				lbl.System = systemFromEnv()
			}

			ns := namespace
			if ns == "" {
				ns = defaultFindNamespace
			}

			client := registry.New(orasPath(), s.Log)
			host := registryHost()
			records, err := client.ListNamespace(cmd.Context(), host, ns, credentialsFromEnv())
			if err != nil {
				return err
			}

			return renderRegistryTable(cmd.OutOrStdout(), registry.Filter(records, lbl), noHeader)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", fmt.Sprintf("registry namespace to search (default %q)", defaultFindNamespace))
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the table header")
	return cmd
}

// systemFromEnv resolves the current system name the same way a pull
// would, but tolerates an unset environment instead of failing: "find"
// without a system narrows nothing rather than refusing to run.
func systemFromEnv() string {
	if v := os.Getenv(EnvSystem); v != "" {
		return v
	}
	return os.Getenv(EnvClusterName)
}

func renderRegistryTable(w io.Writer, rows []registry.Record, noHeader bool) error {
	out := append([]registry.Record(nil), rows...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Uarch < b.Uarch
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !noHeader {
		fmt.Fprintln(tw, "name\tversion\ttag\tsystem\tuarch\tsha256")
	}
	for _, r := range out {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Name, r.Version, r.Tag, r.System, r.Uarch, r.Sha)
	}
	return tw.Flush()
}
