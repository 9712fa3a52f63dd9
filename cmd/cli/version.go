package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := common.GetBuildInfo()
		if !ok {
			fmt.Println("Failed to get version information")
			return
		}

		fmt.Printf("JIVAS Manager %s", info.Version)
		if info.GitCommit != "unknown" && len(info.GitCommit) > 0 {
			if len(info.GitCommit) > 8 {
				fmt.Printf(" (git: %s)", info.GitCommit[:8])
			} else {
				fmt.Printf(" (git: %s)", info.GitCommit)
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
