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

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/mfreeman451/lineradar/pkg/models"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	maxLineBytes    = 64 * 1024
)

// SerialConfig describes a test bench writing one JSON document per line
// on a serial port.
type SerialConfig struct {
	Station  string `json:"station" yaml:"station"`
	Port     string `json:"port" yaml:"port"` // e.g., /dev/ttyUSB0 or COM3
	BaudRate int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
}

// Validate checks the station name and port.
func (c SerialConfig) Validate() error {
	if _, err := models.LookupStation(c.Station); err != nil {
		return err
	}

	if c.Port == "" {
		return fmt.Errorf("%w: port", errMissingSerialPort)
	}

	if c.BaudRate < 0 {
		return fmt.Errorf("%w: baud_rate %d", errInvalidBaudRate, c.BaudRate)
	}

	return nil
}

// SerialReader records every document a bench writes to its port.
type SerialReader struct {
	config   SerialConfig
	recorder *Recorder

	mu   sync.Mutex
	port serial.Port
}

func NewSerialReader(cfg SerialConfig, recorder *Recorder) (*SerialReader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaultBaudRate
	}

	return &SerialReader{config: cfg, recorder: recorder}, nil
}

// Start opens the port.
func (r *SerialReader) Start() error {
	port, err := serial.Open(r.config.Port, &serial.Mode{
		BaudRate: r.config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("%w %s: %w", errSerialOpen, r.config.Port, err)
	}

	r.mu.Lock()
	r.port = port
	r.mu.Unlock()

	log.Printf("Serial: Reading %s measurements from %s @ %d", r.config.Station, r.config.Port, r.config.BaudRate)

	return nil
}

// Run records lines from the open port until it is closed.
func (r *SerialReader) Run(ctx context.Context) {
	r.mu.Lock()
	port := r.port
	r.mu.Unlock()

	if port == nil {
		return
	}

	n, err := r.Consume(ctx, port)
	if err != nil && ctx.Err() == nil {
		log.Printf("Serial: %s stopped after %d records: %v", r.config.Port, n, err)
	}
}

// Consume records every line of src until EOF, a read error or ctx is
// done. Lines that fail to record are logged and skipped. It returns the
// number of records written.
func (r *SerialReader) Consume(ctx context.Context, src io.Reader) (int, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	recorded := 0

	for scanner.Scan() {
		if ctx.Err() != nil {
			return recorded, ctx.Err()
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if _, err := r.recorder.Record(ctx, r.config.Station, line); err != nil {
			log.Printf("Serial: Dropping %s line: %v", r.config.Station, err)
			continue
		}

		recorded++
	}

	return recorded, scanner.Err()
}

// Stop closes the port, ending Run.
func (r *SerialReader) Stop() {
	r.mu.Lock()
	port := r.port
	r.port = nil
	r.mu.Unlock()

	if port == nil {
		return
	}

	if err := port.Close(); err != nil {
		log.Printf("Serial: Failed to close %s: %v", r.config.Port, err)
	}
}
