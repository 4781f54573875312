/*
 * Unsize - Zero-Copy Resizable Account Layouts
 *
 * Copyright 2024 Star Frame Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/inconshreveable/log15"

	"github.com/starframe/unsize"
	"github.com/starframe/unsize/boltstorage"
	"github.com/starframe/unsize/test_utils"
)

func updateStatus(ctx context.Context, status *status) {
	status.Write()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status.Write()

		case <-ctx.Done():
			status.Write()
			fmt.Fprintf(os.Stdout, "\n")
			return
		}
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %s\n", err)
		os.Exit(2)
	}

	lvl, err := log.LvlFromString(cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %s\n", cfg.logLevel, err)
		os.Exit(2)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	runID := uuid.New()
	logger := log.New("module", "stress", "run", runID)

	r = newRand(cfg.seed)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	var base unsize.BaseStorage
	switch cfg.storage {
	case storageBolt:
		bolt, err := boltstorage.Open(cfg.boltPath, boltstorage.Options{Logger: logger})
		if err != nil {
			logger.Error("failed to open bolt storage", "path", cfg.boltPath, "err", err)
			os.Exit(1)
		}
		defer bolt.Close()
		base = bolt
	default:
		base = test_utils.NewInMemBaseStorage()
	}

	status := newStatus(runID)
	rn := &runner{
		cfg:     cfg,
		log:     logger,
		base:    base,
		address: unsize.Address{1, 2, 3, 4, 5, 6, 7, 8},
		status:  status,
	}

	fmt.Printf("Starting account stress test %s, storage = %s, max growth = %d bytes\n", runID, cfg.storage, cfg.maxGrowth)
	logger.Info("starting", "storage", cfg.storage, "maxlen", cfg.maxLength, "maxgrowth", cfg.maxGrowth)

	statusDone := make(chan struct{})
	go func() {
		defer close(statusDone)
		updateStatus(ctx, status)
	}()

	err = rn.run(ctx)
	cancel()
	<-statusDone

	if err != nil {
		logger.Error("stress test failed", "err", err)
		os.Exit(1)
	}
	logger.Info("stopped", "status", status.String())
}
