package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	auditlog "github.com/cmlabs-hris/payroll-engine/internal/pkg/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const version = "v1.0.0"

// repositories is the storage wiring selected by STORE_DRIVER.
type repositories struct {
	tx           database.Transactor
	employee     employee.EmployeeRepository
	attendance   attendance.AttendanceRepository
	payroll      payroll.PayrollRepository
	rate         payroll.RateRepository
	compensation payroll.CompensationRepository
	close        func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "payroll-engine:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	sink, closeSink, err := newAuditSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	emitter := auditlog.NewEmitter(sink, logger)
	exclusion := employee.NewExclusionPolicy(cfg.Payroll.ExcludedRoles...)

	timeline := payrollService.NewRateTimeline(repos.rate, repos.compensation)
	calculator := payrollService.NewCalculator(
		repos.employee,
		repos.payroll,
		timeline,
		payrollService.NewAttendanceAggregator(repos.attendance),
		locker,
		emitter,
		logger,
		payrollService.CalculatorConfig{
			Concurrency: cfg.Payroll.RecalcConcurrency,
			Exclusion:   exclusion,
		},
	)
	payrollSvc := payrollService.NewPayrollService(
		repos.tx,
		repos.payroll,
		repos.employee,
		repos.compensation,
		timeline,
		calculator,
		emitter,
		exclusion,
		logger,
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	router := appHTTP.NewRouter(JWTService, payrollHandler, appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         logger,
		LogLevel:       cfg.SlogLevel(),
	})

	scheduler := cron.NewScheduler(logger)
	cron.NewPayrollJobs(calculator, cfg.Payroll.AutoRecalcInterval, logger).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", server.Addr, "store", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.Database.SeedFile != "" {
			if err := memory.LoadSeedFile(ctx, store, cfg.Database.SeedFile); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
			logger.Info("memory store seeded", "file", cfg.Database.SeedFile)
		}
		return &repositories{
			tx:           store,
			employee:     memory.NewEmployeeRepository(store),
			attendance:   memory.NewAttendanceRepository(store),
			payroll:      memory.NewPayrollRepository(store),
			rate:         memory.NewRateRepository(store),
			compensation: memory.NewCompensationRepository(store),
			close:        func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return &repositories{
			tx:           postgresql.NewTxManager(db),
			employee:     postgresql.NewEmployeeRepository(db),
			attendance:   postgresql.NewAttendanceRepository(db),
			payroll:      postgresql.NewPayrollRepository(db),
			rate:         postgresql.NewRateRepository(db),
			compensation: postgresql.NewCompensationRepository(db),
			close:        db.Close,
		}, nil
	}
}

func newLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR not set, recalculation lock is process-local")
		return lock.NewLocalLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return lock.NewRedisLocker(rdb, "payroll:recalc:", cfg.Payroll.LockTTL), func() { _ = rdb.Close() }, nil
}

func newAuditSink(cfg *config.Config, logger *slog.Logger) (audit.Sink, func(), error) {
	if cfg.Audit.Sink != config.AuditSinkKafka {
		return auditlog.NewLogSink(logger), func() {}, nil
	}

	writer, err := auditlog.NewKafkaWriter(cfg.Audit.KafkaBroker, cfg.Audit.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	sink := auditlog.NewKafkaSink(writer)
	return sink, func() {
		if err := sink.Close(); err != nil {
			logger.Error("close kafka audit sink", "error", err)
		}
	}, nil
}
