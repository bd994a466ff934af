package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/catalog"
)

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <name> <file.xml>",
		Short: "Compile an XML file into the store",
		Long: `Put compiles an XML document into CXML and stores it under name,
replacing any earlier document with that name.

Examples:
  cxmldb put orders/7 order.xml
  cat order.xml | cxmldb put orders/7 -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[1])
			if err != nil {
				return err
			}
			defer in.Close()

			return a.withCatalog(func(c *catalog.Catalog) error {
				info, err := c.Compile(cmd.Context(), args[0], in)
				if err != nil {
					return err
				}
				cmd.Printf("Stored %s: %d bytes, %d events, %d symbols\n",
					info.Name, info.Size, info.Events, info.Symbols)
				return nil
			})
		},
	}
}
