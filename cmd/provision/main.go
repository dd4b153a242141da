package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/bus-tracking/internal/config"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/events"
	"github.com/spec-kit/bus-tracking/internal/observability"
	"github.com/spec-kit/bus-tracking/internal/persistence"
	"github.com/spec-kit/bus-tracking/internal/repository"
	"github.com/spec-kit/bus-tracking/internal/service"
	"github.com/spec-kit/bus-tracking/internal/worker"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

func main() {
	if err := newProvisionCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newProvisionCmd() *cobra.Command {
	var in service.ProvisionInput

	validRoles := make([]string, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		validRoles = append(validRoles, string(r))
	}

	cmd := &cobra.Command{
		Use:          "provision <role>",
		Short:        "Create a student or driver account",
		Long:         "Administrative account creation. Driver accounts can only be created here.",
		Args:         cobra.ExactArgs(1),
		ValidArgs:    validRoles,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := domain.ParseRole(args[0])
			if !ok {
				return fmt.Errorf("unknown role %q, expected student or driver", args[0])
			}
			in.Role = role

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("POSTGRES_DSN is required to provision accounts")
			}

			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx := context.Background()
			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pg.Close()

			dispatcher := events.NewInMemoryDispatcher()
			worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, nil))

			authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
				UserRepo:   repository.NewUserRepository(pg.PoolHandle()),
				Dispatcher: dispatcher,
				Logger:     logger,
			})
			if err != nil {
				return fmt.Errorf("failed to init auth service: %w", err)
			}

			profile, err := authService.Provision(ctx, in)
			if err != nil {
				var de *apperrors.DomainError
				if errors.As(err, &de) && len(de.Fields) > 0 {
					keys := make([]string, 0, len(de.Fields))
					for k := range de.Fields {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", k, de.Fields[k])
					}
				}
				return err
			}

			logger.Info("account provisioned", zap.String("id", profile.ID), zap.String("role", string(profile.Role)))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s <%s> (id %s)\n", profile.Role, profile.Name, profile.Email, profile.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
