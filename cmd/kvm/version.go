package kvm

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version reads the binary's embedded VCS revision, falling back to
// "<unknown>" for an unversioned build.
func Version() string {
	version := "<unknown>"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, kv := range info.Settings {
			if kv.Key == "vcs.revision" && kv.Value != "" {
				version = kv.Value
			}
		}
	}
	return version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version())
		},
	}
}
