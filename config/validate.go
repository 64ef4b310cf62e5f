// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/mining"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.MempoolDir == "" {
		return ErrEmptyMempoolDir
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if !validLogFormats[strings.ToLower(cfg.LogFormat)] {
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, cfg.LogFormat)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, cfg.Workers)
	}

	_, err := cfg.MiningParams()
	return err
}

// MiningParams decodes the block parameters of cfg.
func (c Config) MiningParams() (mining.Params, error) {
	var p mining.Params

	target, err := c.Target()
	if err != nil {
		return p, err
	}

	prev, err := block.ParseHashHex(c.PrevBlock)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidPrevBlock, err)
	}

	payload, err := hex.DecodeString(c.CoinbasePayload)
	if err != nil {
		return p, fmt.Errorf("%w: coinbase: %w", ErrInvalidHex, err)
	}

	reward, err := script.NewFromHex(c.RewardScript)
	if err != nil {
		return p, fmt.Errorf("%w: rewardscript: %w", ErrInvalidHex, err)
	}
	if len(*reward) == 0 {
		return p, ErrEmptyRewardScript
	}

	return mining.Params{
		Version:         c.Version,
		PrevBlock:       prev,
		Target:          target,
		Subsidy:         c.Subsidy,
		CoinbasePayload: payload,
		RewardScript:    []byte(*reward),
	}, nil
}

// Target returns the difficulty target. DifficultyBits takes precedence over
// DifficultyTarget when set.
func (c Config) Target() (block.Target, error) {
	var (
		t   block.Target
		err error
	)
	if c.DifficultyBits != 0 {
		t = block.TargetFromCompact(c.DifficultyBits)
	} else if t, err = block.ParseTarget(c.DifficultyTarget); err != nil {
		return t, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	if t.Unsatisfiable() {
		return t, fmt.Errorf("%w: target is zero", ErrInvalidTarget)
	}
	return t, nil
}
