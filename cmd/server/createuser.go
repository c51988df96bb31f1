package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/db"
	"github.com/ahsanfayaz52/notesapp/internal/forms"
	"github.com/ahsanfayaz52/notesapp/internal/models"
)

var (
	newUsername string
	newPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Add a user account",
	Long:  `Createuser adds an account with the same rules the signup page applies.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUsername == "" || newPassword == "" {
			return errors.New("--username and --password are required")
		}

		conn, err := db.Open(cmd.Context(), cfg.DBOptions())
		if err != nil {
			return err
		}
		defer conn.Close()

		user, err := createUser(cmd.Context(), db.NewUserStore(conn), newUsername, newPassword)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User created: %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "password")
	rootCmd.AddCommand(createUserCmd)
}

func createUser(ctx context.Context, users *db.UserStore, username, password string) (*models.User, error) {
	form := forms.ParseSignupForm(url.Values{
		"username":  {username},
		"password1": {password},
		"password2": {password},
	})
	ok, err := form.Validate(ctx, users)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("create user %q: %s", username, describe(form.Errors))
	}

	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: form.Username, PasswordHash: hash}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return user, nil
}

// describe flattens form errors into one line, fields in name order.
func describe(errs forms.Errors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(errs[field], " "))
	}
	return strings.Join(parts, "; ")
}
