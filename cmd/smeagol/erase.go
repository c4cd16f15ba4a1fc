// Erase command for the smeagol CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Remove the backing settings document",
	Long: `Erase wipes all settings by removing the backing document. The next
mutation recreates the document fresh.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "erase:", err)
			os.Exit(exitSysError)
		}
		defer st.Close()

		if err := st.Erase(false); err != nil {
			fmt.Fprintln(os.Stderr, "erase:", err)
			os.Exit(exitSysError)
		}
		fmt.Println("settings erased:", st.Path())
		return nil
	},
}
