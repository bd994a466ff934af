package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/cxml"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <in.cxml>",
		Short: "Print the events of a CXML file",
		Long: `Dump prints one line per record of a CXML buffer, followed by the
record and symbol counts.

Example:
  cxmldb dump order.cxml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var rec cxml.Recorder
			dec := cxml.NewDecoder()
			if err := dec.Decode(buf, &rec); err != nil {
				return fmt.Errorf("dump %s: %w", args[0], err)
			}

			a.logger.Debug("document dumped", "input", args[0], "records", dec.Records())
			out := cmd.OutOrStdout()
			for i, e := range rec.Events {
				fmt.Fprintf(out, "%4d  %s\n", i, e)
			}
			fmt.Fprintf(out, "%d bytes, %d records, %d symbols\n", len(buf), dec.Records(), dec.Symbols().Len())
			return nil
		},
	}
}
