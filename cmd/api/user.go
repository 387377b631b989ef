package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/cardio-api/internal/app"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository/postgres"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage logins",
	}
	cmd.AddCommand(newCreateUserCommand())
	return cmd
}

func newCreateUserCommand() *cobra.Command {
	var req model.CreateUserRequest
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator or reception login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg)
			defer closer.Close()

			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := app.New(cfg, postgresRepositories(db), app.Options{}, logger)
			if err != nil {
				return err
			}

			req.Role = model.Role(role)
			user, err := a.Auth.CreateUser(context.Background(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s login %q (%s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Password, "password", "", "login password")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "admin or reception")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
