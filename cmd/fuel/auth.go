package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var user, pass string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			id, err := a.backend.Register(cmd.Context(), user, pw)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, map[string]string{"user_id": id})
			}
			fmt.Fprintf(a.stdout, "registered %s (id %s), now run `fuel login`\n", user, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "username", "u", "", "username")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "password (or FUEL_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var user, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			st, err := a.session.SignIn(cmd.Context(), user, pw)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, st)
			}
			fmt.Fprintf(a.stdout, "signed in as %s (token valid until %s)\n", st.Username, st.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "username", "u", "", "username")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "password (or FUEL_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "signed out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the stored token with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.session.Status(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.stdout, st)
			}
			if !st.Authenticated {
				fmt.Fprintln(a.stdout, "signed out")
				return nil
			}
			fmt.Fprintf(a.stdout, "signed in as %s", st.Username)
			if !st.ExpiresAt.IsZero() {
				fmt.Fprintf(a.stdout, " (token valid until %s)", st.ExpiresAt.Local().Format(time.DateTime))
			}
			fmt.Fprintln(a.stdout)
			return nil
		},
	}
}
