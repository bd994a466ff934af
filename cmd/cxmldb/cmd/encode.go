package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/xmlsax"
)

func newEncodeCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "encode <in.xml>",
		Short: "Encode an XML file as CXML",
		Long: `Encode parses an XML document and writes its CXML encoding.

The output defaults to the input path with a .cxml extension, or standard
output when reading standard input.

Examples:
  cxmldb encode order.xml
  cxmldb encode order.xml -o /tmp/order.cxml
  cat order.xml | cxmldb encode - > order.cxml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			enc := cxml.NewEncoder()
			if err := xmlsax.ParseContext(cmd.Context(), in, enc); err != nil {
				return fmt.Errorf("encode %s: %w", args[0], err)
			}

			if output == "" {
				output = stdio
				if args[0] != stdio {
					output = swapExt(args[0], ".cxml")
				}
			}
			err = writeOutput(cmd, output, func(w io.Writer) error {
				_, err := w.Write(enc.Bytes())
				return err
			})
			if err != nil {
				return err
			}

			a.logger.Debug("document encoded", "input", args[0], "output", output)
			cmd.PrintErrf("Encoded %s: %d bytes, %d events, %d symbols\n",
				args[0], len(enc.Bytes()), enc.Records(), enc.Symbols().Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for standard output")
	return cmd
}
