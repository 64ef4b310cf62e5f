// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidLogFormat indicates the log format is not recognized.
	ErrInvalidLogFormat = errors.New("config: invalid log format (must be \"text\" or \"json\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrEmptyMempoolDir indicates the mempool directory path is empty.
	ErrEmptyMempoolDir = errors.New("config: mempool directory must not be empty")

	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("config: workers must be at least 1")

	// ErrInvalidTarget indicates the difficulty target is malformed.
	ErrInvalidTarget = errors.New("config: invalid difficulty target")

	// ErrInvalidPrevBlock indicates the previous block hash is malformed.
	ErrInvalidPrevBlock = errors.New("config: invalid previous block hash")

	// ErrInvalidHex indicates a hex-encoded value does not decode.
	ErrInvalidHex = errors.New("config: invalid hex value")

	// ErrEmptyRewardScript indicates the reward script is empty.
	ErrEmptyRewardScript = errors.New("config: reward script must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
