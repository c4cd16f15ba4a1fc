// Remove command for the smeagol CLI.
package main

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <key>...",
	Short: "Delete the entry at a key path",
	Long: `Remove deletes the entry at the given key path. Removing a
sub-pocket removes everything below it. Removing a key that does not
exist is not an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		parent, err := descend(st.Pocket, args[:len(args)-1], false)
		if err != nil {
			return err
		}
		return parent.Remove(args[len(args)-1])
	},
}
