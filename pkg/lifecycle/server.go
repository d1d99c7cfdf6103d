/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package lifecycle runs a long-lived service next to its gRPC server and
// tears both down on signal, error or context cancellation.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfreeman451/lineradar/pkg/grpc"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	MaxSendSize     = 4 * 1024 * 1024 // 4MB
	ShutdownTimeout = 10 * time.Second
)

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// GRPCServiceRegistrar is a function type for registering gRPC services.
type GRPCServiceRegistrar func(*grpc.Server) error

// ServerOptions holds configuration for creating a server. With neither
// ListenAddr nor Listener set, only the service runs.
type ServerOptions struct {
	ListenAddr           string
	Listener             net.Listener
	ServiceName          string
	Service              Service
	RegisterGRPCServices []GRPCServiceRegistrar
	Security             *models.SecurityConfig
}

// RunServer starts a service with the provided options and blocks until
// shutdown completes.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("*** Starting service %s", opts.ServiceName)

	errChan := make(chan error, 2)

	var grpcServer *grpc.Server

	if opts.ListenAddr != "" || opts.Listener != nil {
		srv, provider, err := setupGRPCServer(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to setup gRPC server: %w", err)
		}

		defer func() {
			if err := provider.Close(); err != nil {
				log.Printf("Failed to close security provider: %v", err)
			}
		}()

		grpcServer = srv

		go func() {
			log.Printf("Starting gRPC server for %s", opts.ServiceName)

			var err error
			if opts.Listener != nil {
				err = grpcServer.Serve(opts.Listener)
			} else {
				err = grpcServer.Start()
			}

			if err != nil {
				errChan <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	go func() {
		if err := opts.Service.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	return handleShutdown(ctx, cancel, grpcServer, opts.Service, errChan)
}

func setupGRPCServer(ctx context.Context, opts *ServerOptions) (*grpc.Server, grpc.SecurityProvider, error) {
	provider, err := grpc.NewSecurityProvider(ctx, opts.Security)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create security provider: %w", err)
	}

	creds, err := provider.GetServerCredentials(ctx)
	if err != nil {
		_ = provider.Close()

		return nil, nil, fmt.Errorf("failed to get server credentials: %w", err)
	}

	grpcServer := grpc.NewServer(opts.ListenAddr,
		grpc.WithMaxSendSize(MaxSendSize),
		grpc.WithServerOptions(creds),
	)

	for _, register := range opts.RegisterGRPCServices {
		if err := register(grpcServer); err != nil {
			_ = provider.Close()

			return nil, nil, fmt.Errorf("failed to register gRPC service: %w", err)
		}
	}

	return grpcServer, provider, nil
}

func handleShutdown(
	ctx context.Context, cancel context.CancelFunc, grpcServer *grpc.Server, svc Service, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigChan)

	var runErr error

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown", sig)
	case err := <-errChan:
		log.Printf("Received error: %v, initiating shutdown", err)

		runErr = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		log.Printf("Context canceled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if grpcServer != nil {
		grpcServer.Stop(shutdownCtx)
	}

	if err := svc.Stop(shutdownCtx); err != nil {
		log.Printf("Error during service shutdown: %v", err)

		if runErr == nil {
			runErr = fmt.Errorf("shutdown error: %w", err)
		}
	}

	return runErr
}
