package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/frontdesk-api/internal/bootstrap"
	"github.com/jwalitptl/frontdesk-api/internal/repository/postgres"
	authService "github.com/jwalitptl/frontdesk-api/internal/service/auth"
	"github.com/jwalitptl/frontdesk-api/pkg/auth"
	"github.com/jwalitptl/frontdesk-api/pkg/metrics"
	"github.com/jwalitptl/frontdesk-api/pkg/security"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage front desk operators",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			admin, _ := cmd.Flags().GetBool("admin")
			if password == "" {
				password = os.Getenv("FRONTDESK_NEW_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("--password or FRONTDESK_NEW_PASSWORD is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := bootstrap.NewLogger(cfg)

			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			users := postgres.NewUserRepository(postgres.NewBaseRepository(db, metrics.New("receiptctl")))
			jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
			svc := authService.NewService(users, jwtSvc, security.NewBcryptHasher(0), logger)

			user, err := svc.CreateUser(cmd.Context(), username, name, password, admin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "login name")
	createCmd.Flags().String("name", "", "display name")
	createCmd.Flags().String("password", "", "initial password")
	createCmd.Flags().Bool("admin", false, "grant admin rights")
	_ = createCmd.MarkFlagRequired("username")

	cmd.AddCommand(createCmd)
	return cmd
}
