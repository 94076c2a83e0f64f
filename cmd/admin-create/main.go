package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"p2p-ramp.backend/internal/config"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/infrastructure/datasources"
	"p2p-ramp.backend/internal/infrastructure/models"
	"p2p-ramp.backend/internal/infrastructure/repositories"
	"p2p-ramp.backend/internal/usecases"
	"p2p-ramp.backend/pkg/jwt"
)

type accountProvisioner interface {
	ProvisionUser(ctx context.Context, email, password string, role entities.UserRole) (*entities.User, error)
}

type adminCreateDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (accountProvisioner, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultAdminCreateDeps() adminCreateDeps {
	return adminCreateDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (accountProvisioner, io.Closer, error) {
			db, err := datasources.Open(cfg.Database, cfg.Server.Env)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}
			if err := models.Migrate(db, cfg.Exchange.OneOpenPerCurrency); err != nil {
				_ = sqlDB.Close()
				return nil, nil, fmt.Errorf("failed to migrate: %w", err)
			}

			auth := usecases.NewAuthUsecase(
				repositories.NewUserRepository(db),
				repositories.NewTraderRepository(db),
				jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry),
			)
			return auth, sqlDB, nil
		},
		out: os.Stdout,
	}
}

func runAdminCreate(args []string, deps adminCreateDeps) error {
	def := defaultAdminCreateDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("admin-create", flag.ContinueOnError)
	emailFlag := fs.String("email", "", "admin email (required)")
	passwordFlag := fs.String("password", "", "admin password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *emailFlag == "" || *passwordFlag == "" {
		return fmt.Errorf("--email and --password are required")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	provisioner, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	user, err := provisioner.ProvisionUser(context.Background(), *emailFlag, *passwordFlag, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed creating admin: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Created admin account")
	_, _ = fmt.Fprintf(deps.out, "user_id=%s\n", user.ID.String())
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", user.Email)
	return nil
}

func main() {
	if err := runAdminCreate(os.Args[1:], defaultAdminCreateDeps()); err != nil {
		log.Fatal(err)
	}
}
