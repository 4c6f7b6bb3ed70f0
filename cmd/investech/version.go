package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		common.LoadVersionFromFile()
		if jsonVersion, _ := cmd.Flags().GetBool("json"); jsonVersion {
			_ = json.NewEncoder(os.Stdout).Encode(common.GetBuildInfo())
			return
		}
		fmt.Printf("Investech version %s\n", common.GetFullVersion())
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print build information as JSON")
}
