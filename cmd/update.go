package cmd

import (
	"fmt"

	"github.com/smazurov/opentaxii-core/internal/updater"
	"github.com/spf13/cobra"
)

const defaultRepository = "smazurov/opentaxii-core"

// CreateSelfUpdateCmd returns the self-update command.
func CreateSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Replace this binary with the latest release",
		RunE: func(c *cobra.Command, _ []string) error {
			repo, _ := c.Flags().GetString("repository")
			pre, _ := c.Flags().GetBool("prerelease")
			checkOnly, _ := c.Flags().GetBool("check")

			u, err := updater.New(updater.Options{Repository: repo, Prerelease: pre})
			if err != nil {
				return err
			}

			run := u.Apply
			if checkOnly {
				run = u.Check
			}
			info, err := run(c.Context())
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			switch {
			case !info.UpdateAvailable:
				fmt.Fprintf(out, "already up to date (%s)\n", info.CurrentVersion)
			case checkOnly:
				fmt.Fprintf(out, "update available: %s -> %s\n%s\n", info.CurrentVersion, info.LatestVersion, info.ReleaseURL)
			default:
				fmt.Fprintf(out, "updated %s -> %s, restart taxiid to use it\n", info.CurrentVersion, info.LatestVersion)
			}
			return nil
		},
	}
	c.Flags().String("repository", defaultRepository, "GitHub repository to fetch releases from")
	c.Flags().Bool("prerelease", false, "Include prereleases")
	c.Flags().Bool("check", false, "Only report whether an update is available")
	return c
}
