package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
)

func newLoginCommand() *cobra.Command {
	var user string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)
			client, sessions := cli.NewClient(cfg)

			if user == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Email or username: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				user = strings.TrimSpace(line)
			}
			if password == "" {
				password = os.Getenv("FINTRACK_PASSWORD")
			}
			if user == "" || password == "" {
				return fmt.Errorf("user and password are required (use --password or FINTRACK_PASSWORD)")
			}

			result, err := client.Login(cmd.Context(), user, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := sessions.SaveSession(result.Token, result.User); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}

			name := user
			if result.User != nil && result.User.Username != "" {
				name = result.User.Username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or set FINTRACK_PASSWORD)")

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)
			_, sessions := cli.NewClient(cfg)

			if err := sessions.Logout(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger()
			cfg := cli.LoadAndValidateConfig(logger)
			_, sessions := cli.NewClient(cfg)

			if !sessions.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}

			if user, ok := sessions.User(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Username, user.Email)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in (user details not cached)")
			}

			if verify {
				if sessions.Verify(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Token verified with auth service")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Token could not be verified")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check the token against the auth service")

	return cmd
}
