// Command fuel-server serves the FuelTracker gRPC API: accounts plus one
// archive document per user.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/fuel-tracker/internal/config"
	pkgcrypto "github.com/and161185/fuel-tracker/internal/crypto"
	"github.com/and161185/fuel-tracker/internal/limiter"
	"github.com/and161185/fuel-tracker/internal/migrate"
	"github.com/and161185/fuel-tracker/internal/repository"
	"github.com/and161185/fuel-tracker/internal/repository/postgres"
	s3repo "github.com/and161185/fuel-tracker/internal/repository/s3"
	"github.com/and161185/fuel-tracker/internal/rpc"
	grpcserver "github.com/and161185/fuel-tracker/internal/server/grpc"
	"github.com/and161185/fuel-tracker/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownGrace = 5 * time.Second

// main parses configuration, runs migrations, and starts the gRPC server.
func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.String("limiter", cfg.LimiterKind),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Server, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, cfg.DSN, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	archives, err := newArchiveRepo(ctx, cfg, db)
	if err != nil {
		return err
	}

	authSvc := service.NewAuthService(
		postgres.NewUserRepo(db),
		pkgcrypto.NewHasher(pkgcrypto.DefaultParams),
		[]byte(cfg.JWTKey),
		cfg.AccessTTL,
		newLimiter(cfg, db),
	)
	archiveSvc := service.NewArchiveService(archives, cfg.MaxDocBytes, logger)

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxDocBytes + 64<<10),
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary(grpcserver.NewTokenVerifier([]byte(cfg.JWTKey)), grpcserver.PublicMethods),
		),
	}
	if cfg.Plaintext {
		logger.Warn("serving without TLS")
	} else {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	s := grpc.NewServer(opts...)

	rpc.RegisterFuelTrackerServer(s, grpcserver.New(authSvc, archiveSvc))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", !cfg.Plaintext))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			s.Stop()
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// newArchiveRepo picks the document store named by cfg.Storage.
func newArchiveRepo(ctx context.Context, cfg config.Server, db *postgres.DB) (repository.ArchiveRepository, error) {
	switch cfg.Storage {
	case config.StorageS3:
		client, err := s3repo.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return s3repo.NewArchiveRepo(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return postgres.NewArchiveRepo(db), nil
	}
}

func newLimiter(cfg config.Server, db *postgres.DB) limiter.Limiter {
	if cfg.LimiterKind == config.LimiterMemory {
		return limiter.NewMemory(cfg.Limiter)
	}
	return limiter.NewPG(db.Pool, cfg.Limiter)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
