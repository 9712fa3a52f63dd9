package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jivas-io/jvmanager/internal/common"
	"github.com/jivas-io/jvmanager/internal/jivas"
	"github.com/jivas-io/jvmanager/internal/models"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Sign in to a Jivas platform",
	Long:    "Exchanges an email and password for a platform token and stores it for the other commands",
	PreRunE: preRunConfigE,
	RunE:    runLogin,
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Forget the stored platform token",
	PreRunE: preRunConfigE,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.ClearCredential(store); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Println(successStyle.Render("Logged out"))
		return nil
	},
}

type loginInput struct {
	Host     string
	Email    string
	Password string
}

// loginDefaults prefills the prompt from flags, the stored host and the
// configured user.
func loginDefaults(cmd *cobra.Command) loginInput {
	input := loginInput{
		Email:    cfg.Jivas.User,
		Password: cfg.Jivas.Password,
	}

	if host, ok := store.Get(models.HostKey); ok {
		input.Host = host
	}
	if cfg.HasJivasHost() {
		input.Host = cfg.GetJivasHost()
	}

	if email, _ := cmd.Flags().GetString("email"); len(email) > 0 {
		input.Email = email
	}
	if password, _ := cmd.Flags().GetString("password"); len(password) > 0 {
		input.Password = password
	}

	return input
}

func promptLogin(input *loginInput) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jivas host").
				Placeholder("http://localhost:8000").
				Value(&input.Host).
				Validate(common.ValidateHost),
			huh.NewInput().
				Title("Email").
				Value(&input.Email).
				Validate(common.ValidateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&input.Password).
				Validate(common.ValidateRequired("password")),
		),
	)

	return form.Run()
}

func runLogin(cmd *cobra.Command, args []string) error {
	input := loginDefaults(cmd)

	if len(input.Host) == 0 || len(input.Email) == 0 || len(input.Password) == 0 {
		if err := promptLogin(&input); err != nil {
			return fmt.Errorf("login cancelled: %w", err)
		}
	}

	client, _ := newClient(cmd)

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	result, err := client.Login(ctx, input.Host, input.Email, input.Password)
	if errors.Is(err, jivas.ErrInvalidLogin) {
		return fmt.Errorf("invalid email or password")
	}
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Logged in as %s", result.User.Email)))

	if cred := models.ReadCredential(store); cred.HasExpiry {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Session expires in %s",
			common.FormatDurationRemaining(time.Until(cred.Expiry)))))
	}

	return nil
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
