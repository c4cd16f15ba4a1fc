// Set command for the smeagol CLI.
package main

import (
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <key>... <value>",
	Short: "Store a value at a key path",
	Long: `Set stores a value at the given key path, creating intermediate
sub-pockets on demand. The value is parsed as a JSON literal (number,
boolean, null, string, list, object); anything that is not valid JSON
is stored as a plain string. The settings document is rewritten before
the command returns.

Example:
  smeagol set language en
  smeagol set extruder_1 primed false`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[:len(args)-1]
		value := args[len(args)-1]

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		parent, err := descend(st.Pocket, path[:len(path)-1], true)
		if err != nil {
			return err
		}
		return parent.Set(path[len(path)-1], parseValue(value))
	},
}
