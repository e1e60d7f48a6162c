package table

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"shardlink/internal/framing"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var (
		clientVersion string
		id            string
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the frame length table for a client version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := framing.ParseVersion(clientVersion)
			if err != nil {
				return err
			}
			t := framing.Build(v)
			if id == "" {
				return framing.Dump(os.Stdout, t)
			}
			n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(id), "0x"), 16, 8)
			if err != nil {
				return fmt.Errorf("invalid frame id %q: must be a hex byte", id)
			}
			fmt.Printf("0x%02X %s\n", n, t.Lookup(byte(n)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&clientVersion, "client-version", "v", framing.VLatest.String(), "Client version, e.g. 7.0.95.0 or 5.0.0a")
	cmd.Flags().StringVar(&id, "id", "", "Print a single frame id (hex)")

	return cmd
}
