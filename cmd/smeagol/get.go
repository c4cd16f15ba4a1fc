// Get command for the smeagol CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/smeagol/pkg/pocket"
)

var getCmd = &cobra.Command{
	Use:   "get <key>...",
	Short: "Print the value at a key path",
	Long: `Get walks the settings tree along the given key path and prints the
value found there. Sub-pockets print as JSON documents.

Example:
  smeagol get language
  smeagol get extruder_1 primed`,
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

		key := args[len(args)-1]
		v, ok := parent.Get(key)
		if !ok {
			return fmt.Errorf("%q: %w", key, pocket.ErrKeyNotFound)
		}
		return printValue(v)
	},
}
