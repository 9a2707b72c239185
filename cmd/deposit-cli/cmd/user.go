package cmd

import (
	"context"
	"fmt"

	"deposit-core/internal/model"
	"deposit-core/internal/service/registry"

	"github.com/spf13/cobra"
)

var (
	userEmail     string
	userFirstName string
	userLastName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage wallet owners",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a wallet owner",
	Long: `Creates a user record. Wallets reference a user, so one must exist
before "wallet register" can succeed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		u := &model.User{
			Email:     userEmail,
			FirstName: userFirstName,
			LastName:  userLastName,
		}
		if err := registry.NewAdmin(db).CreateUser(context.Background(), u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Printf("User registered: id=%d email=%s\n", u.ID, u.Email)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		users, err := registry.NewAdmin(db).ListUsers(context.Background())
		if err != nil {
			return err
		}

		for _, u := range users {
			fmt.Printf("%d\t%s\t%s %s\n", u.ID, u.Email, u.FirstName, u.LastName)
		}
		fmt.Printf("%d user(s)\n", len(users))
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userAddCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name (required)")
	userAddCmd.Flags().StringVar(&userLastName, "last-name", "", "last name (required)")
	userAddCmd.MarkFlagRequired("email")
	userAddCmd.MarkFlagRequired("first-name")
	userAddCmd.MarkFlagRequired("last-name")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}
