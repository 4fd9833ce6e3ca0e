/*
 * Copyright 2025 The Redline Authors. All rights reserved.
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

package backend

import (
	"fmt"
	"os"
	"time"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// SecretKey is the secret key for signing authentication tokens.
	SecretKey string `yaml:"SecretKey"`

	// AuthTokenDuration is the duration of issued auth tokens. Default is "24h".
	AuthTokenDuration string `yaml:"AuthTokenDuration"`

	// SessionLivenessThreshold is how long a session may go without a
	// heartbeat before it stops counting as active and becomes eligible for
	// reaping. Default is "60s".
	SessionLivenessThreshold string `yaml:"SessionLivenessThreshold"`

	// SubscriberLimitPerDocument is the maximum number of concurrent
	// subscribers on a single document's event topic. Zero means unlimited.
	SubscriberLimitPerDocument int `yaml:"SubscriberLimitPerDocument"`

	// Hostname is the server hostname. hostname is used by metrics.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.SessionLivenessThreshold); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--session-liveness-threshold" flag: %w`,
			c.SessionLivenessThreshold,
			err,
		)
	}

	if _, err := time.ParseDuration(c.AuthTokenDuration); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--auth-token-duration" flag: %w`,
			c.AuthTokenDuration,
			err,
		)
	}

	if c.SubscriberLimitPerDocument < 0 {
		return fmt.Errorf(
			`invalid argument %d for "--subscriber-limit-per-document" flag`,
			c.SubscriberLimitPerDocument,
		)
	}

	return nil
}

// ParseSessionLivenessThreshold returns the session liveness threshold.
func (c *Config) ParseSessionLivenessThreshold() time.Duration {
	result, err := time.ParseDuration(c.SessionLivenessThreshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse session liveness threshold: %w", err)
		os.Exit(1)
	}

	return result
}

// ParseAuthTokenDuration returns the auth token duration.
func (c *Config) ParseAuthTokenDuration() time.Duration {
	result, err := time.ParseDuration(c.AuthTokenDuration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse auth token duration: %w", err)
		os.Exit(1)
	}

	return result
}
