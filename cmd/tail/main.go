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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mfreeman451/lineradar/pkg/config"
	"github.com/mfreeman451/lineradar/pkg/grpc"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/mfreeman451/lineradar/pkg/stream"
	"github.com/mfreeman451/lineradar/pkg/tail"
)

type viewerConfig struct {
	Dashboard grpc.ConnectionConfig `json:"dashboard" yaml:"dashboard"`
	Station   string                `json:"station,omitempty" yaml:"station,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Optional viewer config file")
	addr := flag.String("addr", "localhost:50055", "Dashboard gRPC address")
	station := flag.String("station", "", "Only show this station")
	flag.Parse()

	cfg := viewerConfig{Dashboard: grpc.ConnectionConfig{Address: *addr}}

	if *configPath != "" {
		if err := config.LoadFile(*configPath, &cfg); err != nil {
			return err
		}
	}

	if *station != "" {
		cfg.Station = *station
	}

	if cfg.Station != "" {
		st, err := models.LookupStation(cfg.Station)
		if err != nil {
			return err
		}

		cfg.Station = st.Name
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := stream.Dial(ctx, &cfg.Dashboard)
	if err != nil {
		return err
	}

	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Failed to close dashboard connection: %v", err)
		}
	}()

	events := make(chan *models.LiveErrorEvent, 64)
	errs := make(chan error, 1)

	go func() {
		errs <- client.Subscribe(ctx, cfg.Station, func(ev *models.LiveErrorEvent) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	p := tea.NewProgram(tail.New(events, errs, cfg.Station, nil), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}
