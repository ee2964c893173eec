package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rpggio/scopeguard/internal/config"
	"github.com/rpggio/scopeguard/internal/sqlite"
	"github.com/spf13/cobra"
)

func newAPIKeyCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCommand(loadConfig))
	cmd.AddCommand(newAPIKeyListCommand(loadConfig))
	return cmd
}

func newAPIKeyCreateCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	var userID, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key; the token is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			db, err := openDatabase(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			token, key, err := sqlite.NewAPIKeyRepository(db).Create(cmd.Context(), userID, description)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:  %s\n", key.UserID)
			fmt.Fprintf(out, "token: %s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID to issue the key for (default: new user)")
	cmd.Flags().StringVar(&description, "description", "", "Free-form note stored with the key")
	return cmd
}

func newAPIKeyListCommand(loadConfig func() (config.Config, error)) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys, optionally for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			db, err := openDatabase(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			keys, err := sqlite.NewAPIKeyRepository(db).List(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("list api keys: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HASH\tUSER\tCREATED\tLAST USED\tDESCRIPTION")
			for _, key := range keys {
				lastUsed := "never"
				if key.LastUsed != nil {
					lastUsed = key.LastUsed.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", key.KeyHash[:12], key.UserID, key.CreatedAt.Format(time.RFC3339), lastUsed, key.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Only keys for this user ID")
	return cmd
}
