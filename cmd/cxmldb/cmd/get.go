package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/catalog"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a stored document",
		Long: `Get fetches a stored document as XML (default), as its raw CXML buffer,
or as a JSON list of events.

Examples:
  cxmldb get orders/7 --indent
  cxmldb get orders/7 --format cxml -o order.cxml
  cxmldb get orders/7 --format events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			switch format {
			case "xml", "cxml", "events":
			default:
				return fmt.Errorf("unknown format %q: use xml, cxml or events", format)
			}

			return a.withCatalog(func(c *catalog.Catalog) error {
				return writeOutput(cmd, output, func(w io.Writer) error {
					switch format {
					case "cxml":
						raw, err := c.Raw(name)
						if err != nil {
							return err
						}
						_, err = w.Write(raw)
						return err
					case "events":
						events, err := c.Events(name)
						if err != nil {
							return err
						}
						enc := json.NewEncoder(w)
						enc.SetIndent("", "  ")
						return enc.Encode(events)
					default:
						if err := c.Render(name, w, indent); err != nil {
							return err
						}
						_, err := io.WriteString(w, "\n")
						return err
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xml", "Output format: xml, cxml or events")
	cmd.Flags().StringVarP(&output, "output", "o", stdio, "Output file, - for standard output")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent nested elements (xml format)")
	return cmd
}
