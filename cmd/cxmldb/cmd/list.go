package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/catalog"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [prefix]",
		Short: "List stored document names",
		Long: `List prints the names of stored documents in sorted order, optionally
only those starting with prefix.

Examples:
  cxmldb list
  cxmldb list orders/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			return a.withCatalog(func(c *catalog.Catalog) error {
				names, err := c.List(prefix)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}
