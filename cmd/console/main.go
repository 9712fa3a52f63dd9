package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/config"
	"github.com/jivas-io/jvmanager/internal/daemon"
)

var (
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the JIVAS Manager web console",
	Long: `Start the JIVAS Manager web console.

If no config file is specified, the console will look for config files in the following locations:
  - ./config.yaml
  - ./config/config.yaml
  - /etc/jvmanager/config.yaml
  - ~/.config/jvmanager/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}

		sigChan, cleanup := common.NewInterruptChannel()
		defer cleanup()

		server := daemon.NewServer(cfg)
		if err := server.Start(); err != nil {
			logrus.Fatalf("Failed to start web console: %v", err)
		}

		<-sigChan
		server.Stop()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("Failed to execute command: %v", err)
	}
}
