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

package lifecycle

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mfreeman451/lineradar/pkg/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
)

var errBoom = errors.New("boom")

type fakeService struct {
	startErr error
	stopErr  error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (f *fakeService) Start(ctx context.Context) error {
	f.started.Store(true)

	if f.startErr != nil {
		return f.startErr
	}

	<-ctx.Done()

	return nil
}

func (f *fakeService) Stop(context.Context) error {
	f.stopped.Store(true)

	return f.stopErr
}

func runAsync(ctx context.Context, opts *ServerOptions) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- RunServer(ctx, opts)
	}()

	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("RunServer did not return")
		return nil
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	svc := &fakeService{}
	registered := false

	ctx, cancel := context.WithCancel(context.Background())

	done := runAsync(ctx, &ServerOptions{
		Listener:    lis,
		ServiceName: "lineradar-test",
		Service:     svc,
		RegisterGRPCServices: []GRPCServiceRegistrar{
			func(s *grpc.Server) error {
				registered = true

				s.RegisterService(&grpclib.ServiceDesc{
					ServiceName: "lineradar.Test",
					HandlerType: (*any)(nil),
				}, struct{}{})

				return nil
			},
		},
	})

	require.Eventually(t, svc.started.Load, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, wait(t, done))
	assert.True(t, registered)
	assert.True(t, svc.stopped.Load())
}

func TestRunServerWithoutGRPC(t *testing.T) {
	svc := &fakeService{startErr: errBoom}

	err := wait(t, runAsync(context.Background(), &ServerOptions{ServiceName: "lineradar-test", Service: svc}))

	require.ErrorIs(t, err, errBoom)
	assert.True(t, svc.stopped.Load())
}

func TestRunServerReportsStopError(t *testing.T) {
	svc := &fakeService{stopErr: errBoom}

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, &ServerOptions{ServiceName: "lineradar-test", Service: svc})

	require.Eventually(t, svc.started.Load, 2*time.Second, 10*time.Millisecond)
	cancel()

	require.ErrorIs(t, wait(t, done), errBoom)
}

func TestRunServerRegistrarFailure(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = lis.Close() }()

	err = RunServer(context.Background(), &ServerOptions{
		Listener: lis,
		Service:  &fakeService{},
		RegisterGRPCServices: []GRPCServiceRegistrar{
			func(*grpc.Server) error { return errBoom },
		},
	})

	require.ErrorIs(t, err, errBoom)
}
