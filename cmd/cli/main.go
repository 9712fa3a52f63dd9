package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/config"
	"github.com/jivas-io/jvmanager/internal/fetch"
	"github.com/jivas-io/jvmanager/internal/guard"
	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

// Global configuration instance
var cfg *config.Config
var store *sessions.FileStore

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if host, err := cmd.Flags().GetString("host"); err == nil && len(host) > 0 {
		cfg.Jivas.Host = host
	}

	store, err = sessions.OpenFileStore(cfg.Console.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to open credentials: %w", err)
	}

	return nil
}

// preAuthenticateE runs the session guard for the command as if it were a
// console route. A command that would be redirected prompts for a login.
func preAuthenticateE(cmd *cobra.Command, args []string) error {
	if err := preRunConfigE(cmd, args); err != nil {
		return err
	}

	outcome := guard.New(store, guard.WithLoginPath(cfg.GetLoginPath())).Check(commandPath(cmd))
	if outcome.Proceeds() {
		return nil
	}

	logrus.WithField("reason", outcome.Reason).Debugln("Login required")

	return promptAndLogin(cmd, outcome.Reason)
}

// commandPath maps a command onto the route the guard checks, so
// "jvmanager agents list" is checked as /agents/list.
func commandPath(cmd *cobra.Command) string {
	var parts []string
	for c := cmd; c != nil && c.HasParent(); c = c.Parent() {
		parts = append([]string{c.Name()}, parts...)
	}
	return "/" + strings.Join(parts, "/")
}

func newClient(cmd *cobra.Command) (*jivas.Client, *fetch.PathNavigator) {
	navigator := fetch.NewPathNavigator(commandPath(cmd))

	fetcher := fetch.New(store, navigator,
		fetch.WithTimeout(cfg.Jivas.Timeout),
		fetch.WithLoginPath(cfg.GetLoginPath()),
	)

	return jivas.NewClient(fetcher, cfg.GetJivasHost()), navigator
}

// clientError explains a failed platform call. A rejected credential has
// already been cleared from the store.
func clientError(err error) error {
	if errors.Is(err, fetch.ErrUnauthorized) {
		return fmt.Errorf("session rejected by the platform, run 'jvmanager login' to sign in again")
	}
	return err
}

// promptAndLogin asks the user whether to sign in now and runs the login.
func promptAndLogin(cmd *cobra.Command, reason guard.Reason) error {
	fmt.Println()
	fmt.Println(titleStyle.Render("Authentication Required"))
	if reason == guard.ReasonExpired {
		fmt.Println("Your session has expired.")
	} else {
		fmt.Println("No active login session found.")
	}
	fmt.Println()

	var shouldLogin bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Would you like to login now?").
				Description("Your credentials are sent to the Jivas platform only").
				Value(&shouldLogin),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("login prompt cancelled: %w", err)
	}

	if !shouldLogin {
		return fmt.Errorf("authentication required but login was declined")
	}

	return runLogin(cmd, nil)
}

var rootCmd = &cobra.Command{
	Use:   "jvmanager",
	Short: "JIVAS Manager - manage Jivas agents from the terminal or a web console",
	Long: `JIVAS Manager signs in to a Jivas platform and manages its agents.

Use 'jvmanager serve' to run the web console, or the commands below to work
from the terminal. Credentials are kept in ~/.config/jvmanager/credentials.yaml
unless console.credentials_file is configured.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default is ./config.yaml or ~/.config/jvmanager/config.yaml)")
	rootCmd.PersistentFlags().String("host", "", "Override the Jivas platform URL (e.g., http://localhost:8000)")
}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}

func Execute() error {
	return rootCmd.Execute()
}
