package version

import (
	"fmt"
	"runtime"

	"shardlink/internal/framing"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Cmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(Version)
				return
			}
			fmt.Printf("  Version:        %s\n", Version)
			fmt.Printf("  Commit:         %s\n", Commit)
			fmt.Printf("  Built:          %s\n", Date)
			fmt.Printf("  Client version: %s\n", framing.VLatest)
			fmt.Printf("  Go version:     %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:        %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
