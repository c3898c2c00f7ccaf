package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and persist the session",
	Long: `Sign in to the help center and persist the session locally.

The password is read from the HELPCENTER_PASSWORD environment variable
when set, otherwise from stdin.

Examples:
  helpcenter login user@example.com
  HELPCENTER_PASSWORD=... helpcenter login user@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear persisted session state",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register <email> <name>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func readPassword() (config.Secret, error) {
	if pw := os.Getenv("HELPCENTER_PASSWORD"); pw != "" {
		return config.Secret(pw), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("no password given")
	}
	pw := strings.TrimSpace(scanner.Text())
	if pw == "" {
		return "", errors.New("no password given")
	}
	return config.Secret(pw), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword()
	if err != nil {
		return err
	}

	s, err := a.sessions.SignIn(cmd.Context(), args[0], password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return errors.New("invalid email or password")
		}
		return fmt.Errorf("sign in: %w", err)
	}

	fmt.Printf("Signed in as %s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.sessions.SignOut(cmd.Context())
	fmt.Println("Signed out")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword()
	if err != nil {
		return err
	}

	user, err := a.client.Register(cmd.Context(), api.RegisterRequest{
		Email:    args[0],
		Name:     args[1],
		Password: password.Value(),
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	fmt.Printf("Account created for %s. Run `helpcenter login %s` to sign in.\n", user.Email, user.Email)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.requireAuth(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", s.User.Email, s.User.Role)
	if s.User.Name != "" {
		fmt.Printf("Name: %s\n", s.User.Name)
	}
	fmt.Printf("Last activity: %s\n", s.LastActivity.Local().Format("2006-01-02 15:04:05"))
	return nil
}
