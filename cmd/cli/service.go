package cli

import (
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	jvservice "github.com/jivas-io/jvmanager/internal/service"
)

var serviceCmd = &cobra.Command{
	Use:               "service",
	Short:             "Service management commands",
	Long:              `Manage the JIVAS Manager web console as a system service`,
	PersistentPreRunE: preRunConfigE,
}

func createService(cmd *cobra.Command) (service.Service, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return jvservice.Create(cfg, configFile)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the console as a system service",
	Long:  `Install the web console as a system service that will start automatically on boot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := createService(cmd)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if err := s.Install(); err != nil {
			printInstallInstructions()
			return fmt.Errorf("failed to install service: %w", err)
		}

		fmt.Println(successStyle.Render("JIVAS Manager service installed"))
		fmt.Println("   Use 'jvmanager service start' to start the service")
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the console service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := createService(cmd)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}

		fmt.Println(successStyle.Render("JIVAS Manager service started"))
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the console service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := createService(cmd)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if err := s.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}

		fmt.Println(successStyle.Render("JIVAS Manager service stopped"))
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the console service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := createService(cmd)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("failed to get service status: %w", err)
		}

		text := jvservice.StatusText(status)
		switch status {
		case service.StatusRunning:
			text = activeStyle.Render(text)
		case service.StatusStopped:
			text = expiredStyle.Render(text)
		default:
			text = warningStyle.Render(text)
		}

		fmt.Printf("JIVAS Manager service: %s\n", text)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall the console service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := createService(cmd)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		// Already stopped is fine
		if err := s.Stop(); err != nil {
			fmt.Println("Service was not running")
		}

		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall service: %w", err)
		}

		fmt.Println(successStyle.Render("JIVAS Manager service uninstalled"))
		return nil
	},
}

func printInstallInstructions() {
	exePath, _ := os.Executable()
	fmt.Println("\nService installation failed. You may need to run with elevated privileges:")
	fmt.Println("\nLinux and macOS:")
	fmt.Printf("   sudo %s service install\n", exePath)
	fmt.Println("\nWindows:")
	fmt.Printf("   Run as Administrator: %s service install\n", exePath)
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(installCmd)
	serviceCmd.AddCommand(startCmd)
	serviceCmd.AddCommand(stopCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(removeCmd)
}
