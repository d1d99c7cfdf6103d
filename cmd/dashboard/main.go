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
	"log"

	"github.com/mfreeman451/lineradar/pkg/config"
	"github.com/mfreeman451/lineradar/pkg/dashboard"
	"github.com/mfreeman451/lineradar/pkg/lifecycle"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/lineradar/dashboard.yaml", "Path to dashboard config file")
	envPath := flag.String("env", ".env", "Optional dotenv file")
	flag.Parse()

	if err := config.LoadEnv(*envPath); err != nil {
		return err
	}

	var cfg config.DashboardConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		return err
	}

	server, err := dashboard.NewServer(&cfg)
	if err != nil {
		return err
	}

	opts := &lifecycle.ServerOptions{
		ListenAddr:           cfg.GrpcAddr,
		ServiceName:          "lineradar-dashboard",
		Service:              server,
		RegisterGRPCServices: []lifecycle.GRPCServiceRegistrar{server.RegisterGRPC},
		Security:             cfg.Security,
	}

	return lifecycle.RunServer(context.Background(), opts)
}
