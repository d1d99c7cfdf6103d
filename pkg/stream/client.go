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

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	grpcx "github.com/mfreeman451/lineradar/pkg/grpc"
	"github.com/mfreeman451/lineradar/pkg/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client consumes a dashboard's live error stream.
type Client struct {
	conn *grpcx.ClientConn
}

// Dial prepares a client for cfg. The connection is established lazily.
func Dial(ctx context.Context, cfg *grpcx.ConnectionConfig, opts ...grpcx.ClientOption) (*Client, error) {
	conn, err := grpcx.NewClient(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

// Subscribe calls fn for every live error until ctx is done, the server
// ends the stream, or fn returns an error. An empty station subscribes to
// every station.
func (c *Client) Subscribe(ctx context.Context, station string, fn func(*models.LiveErrorEvent) error) error {
	fields := map[string]any{}
	if station != "" {
		fields[stationFilterKey] = station
	}

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidMessage, err)
	}

	s, err := c.conn.GetConnection().NewStream(ctx, &ServiceDesc.Streams[0], subscribeMethod)
	if err != nil {
		return err
	}

	if err := s.SendMsg(req); err != nil {
		return err
	}

	if err := s.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)

		if err := s.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		ev, err := FromStruct(msg)
		if err != nil {
			return err
		}

		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Healthy reports whether the live error service is serving.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	return c.conn.CheckHealth(ctx, ServiceName)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
