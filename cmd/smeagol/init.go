// Init command for the smeagol CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize smeagol configuration and settings storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The config directory and a default config.yaml were
		// already ensured by PersistentPreRunE via loadConfig.
		configDir, err := resolveConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		st, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		defer st.Close()

		// Materialize the settings document so later loads find it.
		if err := st.Save(); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Smeagol initialized successfully")
		fmt.Println("  config:  ", configDir)
		fmt.Println("  settings:", st.Path())
		return nil
	},
}
