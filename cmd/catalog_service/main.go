package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/Ojay1963/Delxta/config"
	"github.com/Ojay1963/Delxta/internal/catalogrpc"
	grpcDelivery "github.com/Ojay1963/Delxta/internal/delivery/grpc"
	"github.com/Ojay1963/Delxta/internal/repository"
	"github.com/Ojay1963/Delxta/pkg/db"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	logger.SetLevel(config.ParseLogLevel(cfg.LogLevel, logger))
	logger.Info("Starting Catalog Service...")

	database, err := db.Connect(cfg.DatabaseURL, db.DefaultPoolOptions)
	if err != nil {
		logger.Fatalf("FATAL: Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connection established.")

	menuRepo := repository.NewPostgresMenuRepository(database, logger)
	handler := grpcDelivery.NewCatalogHandler(menuRepo, logger)

	server := grpc.NewServer()
	catalogrpc.RegisterCatalogServer(server, handler)
	reflection.Register(server)

	lis, err := net.Listen("tcp", cfg.CatalogGrpcPort)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen on %s: %v", cfg.CatalogGrpcPort, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", cfg.CatalogGrpcPort)
		return server.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gRPC server...")
		server.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Catalog Service stopped with error: %v", err)
		return
	}
	logger.Info("Catalog Service stopped.")
}
