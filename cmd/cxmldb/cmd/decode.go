package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/xmlsax"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		output string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "decode <in.cxml>",
		Short: "Decode a CXML file back to XML",
		Long: `Decode replays a CXML buffer and writes it as XML text.

Examples:
  cxmldb decode order.cxml
  cxmldb decode order.cxml --indent -o order.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			opts := xmlsax.WriterOptions{}
			if indent {
				opts.Indent = "  "
			}
			err = writeOutput(cmd, output, func(w io.Writer) error {
				if err := cxml.Decode(buf, xmlsax.NewWriter(w, opts)); err != nil {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}
				_, err := io.WriteString(w, "\n")
				return err
			})
			if err != nil {
				return err
			}

			a.logger.Debug("document decoded", "input", args[0], "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", stdio, "Output file, - for standard output")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent nested elements")
	return cmd
}
