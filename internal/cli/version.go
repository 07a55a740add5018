package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memgate version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memgate %s\n", Version)
	},
}
