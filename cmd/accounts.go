package cmd

import (
	"errors"
	"fmt"

	"github.com/smazurov/opentaxii-core/internal/backends/sqlite"
	"github.com/spf13/cobra"
)

// CreateAccountCmd returns the add-account command, which creates or
// replaces an account in a sqlite.UserStore database.
func CreateAccountCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add-account <username>",
		Short: "Create or update an account in a SQLite user store",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dbPath, _ := c.Flags().GetString("db")
			password, _ := c.Flags().GetString("password")
			admin, _ := c.Flags().GetBool("admin")
			if password == "" {
				return errors.New("--password is required")
			}

			store, err := sqlite.Open(c.Context(), sqlite.Params{Path: dbPath})
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.PutAccount(c.Context(), args[0], password, admin); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "account %s saved to %s\n", args[0], dbPath)
			return nil
		},
	}
	c.Flags().String("db", "users.db", "Path to the SQLite user store")
	c.Flags().String("password", "", "Account password")
	c.Flags().Bool("admin", false, "Grant admin rights")
	return c
}
