package main

import (
	"context"
	"fmt"
	"time"

	"notable/notable/config"
	"notable/notable/sources/psql"
	"notable/notable/types"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/color"
	"notable/notable/utils/validate"

	"github.com/spf13/cobra"
)

// userCmd manages accounts of the postgres identity driver directly in the
// database, so it reads the server configuration rather than the API.
func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local accounts (postgres store driver)",
	}
	cmd.AddCommand(userAddCmd(), userPasswdCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.RegisterRequest{Email: args[0], Password: password}
			if err := validate.Struct(req); err != nil {
				return apperrors.Validation("user.add", err.Error())
			}
			return withAuth(cmd, func(ctx context.Context, auth *psql.Auth) error {
				u, err := auth.Register(ctx, req.Email, req.Password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", color.ColorInfo(u.Email), color.ColorMuted(u.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userPasswdCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <email>",
		Short: "Reset an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.RegisterRequest{Email: args[0], Password: password}
			if err := validate.Struct(req); err != nil {
				return apperrors.Validation("user.passwd", err.Error())
			}
			return withAuth(cmd, func(ctx context.Context, auth *psql.Auth) error {
				if err := auth.SetPassword(ctx, req.Email, req.Password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", color.ColorInfo(req.Email))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func withAuth(cmd *cobra.Command, fn func(ctx context.Context, auth *psql.Auth) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != "postgres" {
		return apperrors.Config("user", "user commands need STORE_DRIVER=postgres")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, psql.NewAuth(db))
}
