package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/daemon"
	jvservice "github.com/jivas-io/jvmanager/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web console",
	Long: `Start the JIVAS Manager web console in the foreground.
When launched by the service manager the console runs as a system service.`,
	PreRunE: preRunConfigE,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !service.Interactive() {
			configFile, _ := cmd.Flags().GetString("config")
			s, err := jvservice.Create(cfg, configFile)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			return s.Run()
		}

		sigChan, cleanup := common.NewInterruptChannel()
		defer cleanup()

		server := daemon.NewServer(cfg)
		if err := server.Start(); err != nil {
			return err
		}

		url := cfg.GetLocalServerUrl()
		fmt.Println(successStyle.Render(fmt.Sprintf("Console running at %s", url)))

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := openBrowser(url); err != nil {
				logrus.WithError(err).Warnln("Failed to open browser")
			}
		}

		sig := <-sigChan
		fmt.Printf("\nReceived signal %v, shutting down gracefully...\n", sig)
		server.Stop()
		fmt.Println("Console stopped")

		return nil
	},
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // linux, freebsd, openbsd, netbsd
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}

func init() {
	serveCmd.Flags().Bool("open", false, "Open the console in the default browser")

	rootCmd.AddCommand(serveCmd)
}
