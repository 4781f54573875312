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
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configKey     = "config"
	seedKey       = "seed"
	maxLengthKey  = "maxlen"
	maxGrowthKey  = "maxgrowth"
	commitEvery   = "commit-every"
	storageKey    = "storage"
	boltPathKey   = "bolt-path"
	durationKey   = "duration"
	logLevelKey   = "log-level"
	envPrefix     = "unsize_stress"
	storageMemory = "memory"
	storageBolt   = "bolt"
)

type config struct {
	seed        int64
	maxLength   int
	maxGrowth   int
	commitEvery int
	storage     string
	boltPath    string
	duration    time.Duration
	logLevel    string
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)

	fs.String(configKey, "", "path to a config file")
	fs.String(seedKey, "", "seed for prng in hex (default is Unix time)")
	fs.Int(maxLengthKey, 2_000, "max number of elements per collection")
	fs.Int(maxGrowthKey, 10*1024, "max account growth per transaction in bytes")
	fs.Int(commitEvery, 64, "number of operations per transaction")
	fs.String(storageKey, storageMemory, "base storage: memory or bolt")
	fs.String(boltPathKey, "stress.db", "bbolt database path when storage is bolt")
	fs.Duration(durationKey, 0, "stop after this long (default is until interrupted)")
	fs.String(logLevelKey, "info", "log level: debug, info, warn, error")

	return fs
}

// getViper returns the viper environment for the stress binary
func getViper() (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(configKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func loadConfig() (config, error) {
	v, err := getViper()
	if err != nil {
		return config{}, err
	}

	c := config{
		maxLength:   v.GetInt(maxLengthKey),
		maxGrowth:   v.GetInt(maxGrowthKey),
		commitEvery: v.GetInt(commitEvery),
		storage:     strings.ToLower(v.GetString(storageKey)),
		boltPath:    v.GetString(boltPathKey),
		duration:    v.GetDuration(durationKey),
		logLevel:    v.GetString(logLevelKey),
	}

	if seedHex := v.GetString(seedKey); len(seedHex) != 0 {
		c.seed, err = strconv.ParseInt(strings.TrimPrefix(seedHex, "0x"), 16, 64)
		if err != nil {
			return config{}, fmt.Errorf("failed to parse seed %q (hex string): %w", seedHex, err)
		}
	}

	switch {
	case c.storage != storageMemory && c.storage != storageBolt:
		return config{}, fmt.Errorf("storage must be %q or %q, got %q", storageMemory, storageBolt, c.storage)
	case c.maxLength <= 0:
		return config{}, fmt.Errorf("%s must be positive", maxLengthKey)
	case c.commitEvery <= 0:
		return config{}, fmt.Errorf("%s must be positive", commitEvery)
	case c.maxGrowth < 0:
		return config{}, fmt.Errorf("%s must not be negative", maxGrowthKey)
	}

	return c, nil
}
