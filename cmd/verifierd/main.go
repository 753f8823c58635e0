package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/assignment-verifier/internal/async"
	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/dashboard"
	"github.com/joseph-ayodele/assignment-verifier/internal/export"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm/provider"
	"github.com/joseph-ayodele/assignment-verifier/internal/observability"
	"github.com/joseph-ayodele/assignment-verifier/internal/pipeline"
	"github.com/joseph-ayodele/assignment-verifier/internal/report"
	repo "github.com/joseph-ayodele/assignment-verifier/internal/repository"
	svc "github.com/joseph-ayodele/assignment-verifier/internal/server"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, os.Stdout, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	sessions, err := session.Open(ctx, cfg.Session, logger)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Error("failed to close session store", "error", err)
		}
	}()

	scorer, err := provider.NewScorer(cfg, logger)
	if err != nil {
		logger.Error("failed to create scorer", "error", err)
		os.Exit(2)
	}

	submissions := repo.NewSubmissionRepository(db, logger)
	reports := report.NewBuilder(report.Branding{
		ProductName:  cfg.Report.ProductName,
		TrainerName:  cfg.Report.TrainerName,
		TrainerRole:  cfg.Report.TrainerRole,
		ContactEmail: cfg.Report.ContactEmail,
		Website:      cfg.Report.Website,
		LinkedIn:     cfg.Report.LinkedIn,
		Instagram:    cfg.Report.Instagram,
	}, logger)
	processor := pipeline.NewProcessor(logger, pipeline.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ZeroFallback:   cfg.Scoring.ZeroFallback,
	}, extract.NewExtractor(logger), scorer, submissions, reports)

	queue := async.NewEvaluationQueue(processor, logger,
		async.WithWorkers(cfg.Server.EvalWorkers),
		async.WithQueueSize(cfg.Server.EvalQueueSize),
		async.WithProcessTimeout(cfg.Server.EvalTimeout),
	)

	trainerAuth := auth.NewTrainerAuth(cfg.Trainer)
	if !trainerAuth.Enabled() {
		logger.Warn("trainer dashboard disabled: TRAINER_PASSWORD_HASH or TRAINER_JWT_SECRET not set")
	}

	router := svc.NewRouter(svc.RouterConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Health: svc.NewHealthHandler(func(ctx context.Context) error {
			return repo.HealthCheck(ctx, db, 2*time.Second, logger)
		}),
		Sessions:    svc.NewSessionHandler(sessions, logger),
		Submissions: svc.NewSubmissionHandler(sessions, queue, cfg.Server.MaxUploadBytes, logger),
		Trainer: svc.NewTrainerHandler(trainerAuth, submissions,
			dashboard.NewService(submissions, logger), export.NewService(submissions, logger), logger),
		TrainerAuth: trainerAuth,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators
	lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCHealthAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("assignment-verifier listening",
			"http_addr", cfg.Server.HTTPAddr,
			"grpc_health_addr", cfg.Server.GRPCHealthAddr,
			"provider", cfg.LLM.Provider,
			"mode", cfg.LLM.Mode,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	if c, ok := scorer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("failed to close scorer", "error", err)
		}
	}
	grpcServer.GracefulStop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}
}
