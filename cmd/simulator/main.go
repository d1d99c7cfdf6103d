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
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfreeman451/lineradar/pkg/config"
	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/ingest"
	"github.com/mfreeman451/lineradar/pkg/simulator"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/lineradar/simulator.yaml", "Path to simulator config file")
	seedOnly := flag.Bool("seed-only", false, "Seed limits and exit")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	var cfg config.SimulatorConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DBPath != "" {
		if err := seedLimits(ctx, cfg.DBPath); err != nil {
			return err
		}
	}

	if *seedOnly {
		return nil
	}

	client, err := ingest.NewClient(ingest.ClientConfig{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	})
	if err != nil {
		return err
	}

	publisher := ingest.NewPublisher(client)
	defer publisher.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := simulator.New(publisher, simulator.NewGenerator(seed, cfg.FailChance), simulator.Config{
		Interval: cfg.Interval.Std(),
		Count:    cfg.Count,
		Stations: cfg.Stations,
	})

	log.Printf("Simulating devices every %s against %s", cfg.Interval.Std(), cfg.MQTT.Broker)

	return sim.Run(ctx)
}

func seedLimits(ctx context.Context, path string) error {
	store, err := db.New(path)
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close record store: %v", err)
		}
	}()

	if err := simulator.SeedLimits(ctx, store); err != nil {
		return fmt.Errorf("failed to seed limits: %w", err)
	}

	log.Printf("Seeded %d limit rows into %s", len(simulator.LimitEntries()), path)

	return nil
}
