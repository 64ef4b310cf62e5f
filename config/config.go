// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the miner configuration file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults of the block parameters.
const (
	DefaultVersion          uint32 = 1
	DefaultPrevBlock               = "0000000000000000000000000000000000000000000000000000000000000000"
	DefaultDifficultyTarget        = "0000ffff00000000000000000000000000000000000000000000000000000000"
	DefaultSubsidy          uint64 = 50 * 100_000_000

	// DefaultCoinbasePayload is the classic genesis coinbase text with a
	// 2023 headline.
	DefaultCoinbasePayload = "04ffff001d0104455468652054696d65732030332f4a616e2f32303233204368616e63656c6c6f72206f6e20626974636f696e2062756c6c"

	// DefaultRewardScript pays to an uncompressed public key with OP_CHECKSIG.
	DefaultRewardScript = "4104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac"
)

// Config holds the miner configuration.
type Config struct {
	DataDir    string
	MempoolDir string
	ReportPath string
	LogLevel   string
	LogFormat  string // text or json
	LogFile    string

	Workers       int
	SearchTimeout time.Duration // 0 = no limit
	MaxExtraNonce uint64

	// ExtendTip mines on top of the stored chain tip instead of PrevBlock.
	ExtendTip bool

	Version          uint32
	PrevBlock        string // hex; all zero for a genesis-style block
	DifficultyTarget string // hex, 64 chars
	DifficultyBits   uint32 // compact form; overrides DifficultyTarget when non-zero
	Subsidy          uint64 // satoshis
	CoinbasePayload  string // hex
	RewardScript     string // hex
}

// DefaultDataDir returns the default data directory (~/.libminer).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".libminer"
	}
	return filepath.Join(home, ".libminer")
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		MempoolDir:       "mempool",
		ReportPath:       "output.txt",
		LogLevel:         "info",
		LogFormat:        "text",
		Workers:          1,
		MaxExtraNonce:    16,
		Version:          DefaultVersion,
		PrevBlock:        DefaultPrevBlock,
		DifficultyTarget: DefaultDifficultyTarget,
		Subsidy:          DefaultSubsidy,
		CoinbasePayload:  DefaultCoinbasePayload,
		RewardScript:     DefaultRewardScript,
	}
}

// ConfigPath returns the path to the config file within dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads a key = value configuration file. Lines starting with #
// and blank lines are ignored. Keys not present keep their default values;
// unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := parseKeyValue(line)
		if !ok {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNum, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %s: %w", ErrInvalidConfigLine, lineNum, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// parseKeyValue splits a line on the first '='.
func parseKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "mempool":
		c.MempoolDir = value
	case "report":
		c.ReportPath = value
	case "loglevel":
		c.LogLevel = value
	case "logformat":
		c.LogFormat = value
	case "logfile":
		c.LogFile = value
	case "workers":
		c.Workers, err = strconv.Atoi(value)
	case "searchtimeout":
		c.SearchTimeout, err = time.ParseDuration(value)
	case "maxextranonce":
		c.MaxExtraNonce, err = strconv.ParseUint(value, 10, 64)
	case "extendtip":
		c.ExtendTip, err = strconv.ParseBool(value)
	case "version":
		c.Version, err = parseUint32(value)
	case "prevblock":
		c.PrevBlock = value
	case "target":
		c.DifficultyTarget = value
	case "bits":
		c.DifficultyBits, err = parseUint32(value)
	case "subsidy":
		c.Subsidy, err = strconv.ParseUint(value, 10, 64)
	case "coinbase":
		c.CoinbasePayload = value
	case "rewardscript":
		c.RewardScript = value
	}
	return err
}

// parseUint32 accepts decimal or 0x-prefixed hex.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

// SaveConfig writes cfg to path in key = value format. Parent directories
// are created as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# libminer configuration\n\n")
	for _, kv := range [][2]string{
		{"datadir", cfg.DataDir},
		{"mempool", cfg.MempoolDir},
		{"report", cfg.ReportPath},
		{"loglevel", cfg.LogLevel},
		{"logformat", cfg.LogFormat},
		{"logfile", cfg.LogFile},
		{"workers", strconv.Itoa(cfg.Workers)},
		{"searchtimeout", cfg.SearchTimeout.String()},
		{"maxextranonce", strconv.FormatUint(cfg.MaxExtraNonce, 10)},
		{"extendtip", strconv.FormatBool(cfg.ExtendTip)},
		{"version", strconv.FormatUint(uint64(cfg.Version), 10)},
		{"prevblock", cfg.PrevBlock},
		{"target", cfg.DifficultyTarget},
		{"bits", fmt.Sprintf("0x%08x", cfg.DifficultyBits)},
		{"subsidy", strconv.FormatUint(cfg.Subsidy, 10)},
		{"coinbase", cfg.CoinbasePayload},
		{"rewardscript", cfg.RewardScript},
	} {
		fmt.Fprintf(&b, "%s = %s\n", kv[0], kv[1])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
