package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/clinic/internal/config"
	"github.com/clinicops/clinic/internal/domain/billing"
	"github.com/clinicops/clinic/internal/domain/laboratory"
	"github.com/clinicops/clinic/internal/domain/patient"
	"github.com/clinicops/clinic/internal/domain/pharmacy"
	"github.com/clinicops/clinic/internal/domain/scheduling"
	"github.com/clinicops/clinic/internal/domain/staff"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/cache"
	"github.com/clinicops/clinic/internal/platform/db"
	"github.com/clinicops/clinic/internal/platform/lock"
	"github.com/clinicops/clinic/internal/platform/middleware"
	"github.com/clinicops/clinic/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(staffCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				migrator := db.NewMigrator(pool, migrations.FS)
				if cfg.RedisURL != "" {
					rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
					if err != nil {
						return err
					}
					defer rdb.Close()
					migrator = migrator.WithLocker(lock.New(rdb, cfg.MigrationsLockTTL, cfg.MigrationsLockTTL, newLogger(cfg)))
				}

				count, err := migrator.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Println("---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	})

	return cmd
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("CLINIC_ADMIN_PASSWORD")
			}
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("--username, --email and --password (or CLINIC_ADMIN_PASSWORD) are required")
			}

			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				svc := staff.NewService(staff.NewRepoPG(pool), nil, nil, 0)
				admin, err := svc.CreateAdmin(ctx, username, password, email)
				if err != nil {
					return err
				}
				fmt.Printf("Created admin %s (%s)\n", admin.Username, admin.ID)
				return nil
			})
		},
	}
	createAdminCmd.Flags().String("username", "", "Login name")
	createAdminCmd.Flags().String("email", "", "Contact email")
	createAdminCmd.Flags().String("password", "", "Initial password (defaults to $CLINIC_ADMIN_PASSWORD)")
	cmd.AddCommand(createAdminCmd)

	return cmd
}

// withPool loads config, opens a pool for the duration of fn and closes it.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	key, generated, err := resolveSigningKey(cfg)
	if err != nil {
		return err
	}
	if generated {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set; using a random key, tokens will not survive a restart")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Token revocation: shared through Redis when configured
	var revoked auth.RevocationStore
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		revoked = auth.NewRedisRevocationStore(rdb)
		logger.Info().Msg("connected to redis")
	} else {
		mem := auth.NewMemoryRevocationStore(10 * time.Minute)
		defer mem.Close()
		revoked = mem
	}

	issuer := auth.NewTokenIssuer(key, cfg.AuthIssuer, cfg.TokenTTL)
	e := newServer(cfg, logger, pool, issuer, revoked)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with middleware and every route. The
// pool is only touched when a handler runs.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, issuer *auth.TokenIssuer, revoked auth.RevocationStore) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Validator = middleware.NewValidator()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(auth.JWTMiddleware(issuer, revoked, auth.AuthSkipper))
	e.Use(middleware.Audit(logger, nil))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))

	apiV1 := e.Group("/api/v1")
	tx := db.NewTransactor(pool)

	// Identity
	staffSvc := staff.NewService(staff.NewRepoPG(pool), issuer, revoked, 0)
	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)
	staff.NewScheduleHandler(staff.NewScheduleService(staff.NewScheduleRepoPG(pool), staff.NewRepoPG(pool))).RegisterRoutes(apiV1)

	// Patients
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool), patient.NewMedicalRecordRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Scheduling
	schedSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewConsultationRepoPG(pool),
		staffSvc,
		tx,
	)
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)

	// Pharmacy
	pharmacySvc := pharmacy.NewService(
		pharmacy.NewSupplierRepoPG(pool),
		pharmacy.NewInventoryRepoPG(pool),
		pharmacy.NewPrescriptionRepoPG(pool),
		schedSvc,
		staffSvc,
		tx,
	)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	// Laboratory
	labSvc := laboratory.NewService(
		laboratory.NewRequestRepoPG(pool),
		laboratory.NewResultRepoPG(pool),
		staffSvc,
		tx,
	)
	laboratory.NewHandler(labSvc).RegisterRoutes(apiV1)

	// Billing
	billingSvc := billing.NewService(
		billing.NewServicePriceRepoPG(pool),
		billing.NewBillRepoPG(pool),
		billing.NewBillDetailRepoPG(pool),
		billing.NewPaymentRepoPG(pool),
		tx,
	)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	return e
}

// resolveSigningKey returns the configured HS256 key, or a random one in
// development. generated reports the latter.
func resolveSigningKey(cfg *config.Config) (key []byte, generated bool, err error) {
	key, err = cfg.SigningKey()
	if err != nil {
		return nil, false, err
	}
	if key != nil {
		return key, false, nil
	}
	if !cfg.IsDev() {
		return nil, false, fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", cfg.Env)
	}
	key = make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate signing key: %w", err)
	}
	return key, true, nil
}
