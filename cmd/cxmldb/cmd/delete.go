package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/catalog"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored document",
		Long: `Delete removes a document from the store.

Example:
  cxmldb delete orders/7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(c *catalog.Catalog) error {
				if err := c.Delete(args[0]); err != nil {
					return err
				}
				cmd.Printf("Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
