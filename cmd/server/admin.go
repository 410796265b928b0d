package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	adminEmail     string
	adminFirstName string
	adminLastName  string
	adminGenerate  bool
)

// readPassword is replaced in tests.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	adminCreateCmd.Flags().StringVar(&adminFirstName, "first-name", "Admin", "admin first name")
	adminCreateCmd.Flags().StringVar(&adminLastName, "last-name", "Local", "admin last name")
	adminCreateCmd.Flags().BoolVar(&adminGenerate, "generate", false, "generate a random passphrase instead of prompting")
	_ = adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manages operator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates an operator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := adminInput()
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(ctx context.Context, app *server.App, logger logging.Logger) error {
			a, password, err := app.CreateAdmin(ctx, in)
			if err != nil {
				return err
			}
			if in.Password == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with password %s\n", a.Email, password)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", a.Email)
			return nil
		})
	},
}

func adminInput() (services.NewAdmin, error) {
	in := services.NewAdmin{Email: adminEmail, FirstName: adminFirstName, LastName: adminLastName}
	if adminGenerate {
		return in, nil
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return in, fmt.Errorf("error reading password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return in, fmt.Errorf("error reading password: %w", err)
	}
	if password != confirm {
		return in, errors.New("passwords do not match")
	}
	if password == "" {
		return in, errors.New("password must not be empty, use --generate for a random one")
	}
	in.Password = password
	return in, nil
}
