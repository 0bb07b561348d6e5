package cmd

import (
	"fmt"

	"github.com/smazurov/opentaxii-core/internal/plugin"
	"github.com/spf13/cobra"
)

// CreatePluginsCmd returns the plugins command, which lists the classes
// that can be named in auth_api.class.
func CreatePluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugin classes",
		Run: func(c *cobra.Command, _ []string) {
			for _, class := range plugin.Default().Classes() {
				fmt.Fprintln(c.OutOrStdout(), class)
			}
		},
	}
}
