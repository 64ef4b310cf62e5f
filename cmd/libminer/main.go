// Command libminer assembles a block from a directory of candidate
// transactions, mines it and writes a report.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/blockstore"
	"github.com/bitfsorg/libminer-go/config"
	"github.com/bitfsorg/libminer-go/logging"
	"github.com/bitfsorg/libminer-go/mining"
	"github.com/bitfsorg/libminer-go/report"
	"github.com/bitfsorg/libminer-go/storage"
)

func main() {
	opts, cfg, err := parseConfig()
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error parsing configuration: %s\n", err)
		os.Exit(1)
	}

	if opts.SaveConfig {
		if err := config.SaveConfig(opts.ConfigFile, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Configuration written to", opts.ConfigFile)
		return
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, cfg, log); err != nil {
		log.WithError(err).Error("Mining failed")
		log.Close()
		os.Exit(1)
	}
}

// errExtendTipNoStore is returned when the stored tip is requested but the
// block store is disabled.
var errExtendTipNoStore = errors.New("--extendtip needs the block store; drop --nostore")

func run(ctx context.Context, opts *configFlags, cfg config.Config, log logrus.FieldLogger) error {
	log.Infof("Version %s", appVersion)

	params, err := cfg.MiningParams()
	if err != nil {
		return err
	}

	if cfg.ExtendTip && opts.NoStore {
		return errExtendTipNoStore
	}

	var store *blockstore.BoltStore
	if !opts.NoStore {
		store, err = blockstore.OpenBoltStore(filepath.Join(cfg.DataDir, "blocks.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.ExtendTip {
			if err := extendTip(store, &params, log); err != nil {
				return err
			}
		}
	}

	candidates, err := storage.LoadMempool(cfg.MempoolDir)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"dir": cfg.MempoolDir, "files": len(candidates)}).Info("Loaded mempool")

	gen, err := mining.NewGenerator(params, mining.Options{
		Workers:       cfg.Workers,
		SearchTimeout: cfg.SearchTimeout,
		MaxExtraNonce: cfg.MaxExtraNonce,
		Log:           log,
	})
	if err != nil {
		return err
	}

	timestamp := opts.Timestamp
	if timestamp == 0 {
		timestamp = uint32(time.Now().Unix())
	}

	b, err := gen.Generate(ctx, candidates, timestamp)
	if err != nil {
		return err
	}

	if err := report.WriteFile(cfg.ReportPath, b); err != nil {
		return err
	}
	log.WithField("path", cfg.ReportPath).Info("Wrote block report")

	if store == nil {
		return nil
	}
	return persist(store, cfg, b, log)
}

// extendTip points params at the stored chain tip. An empty store leaves the
// configured previous block in place.
func extendTip(store blockstore.Store, params *mining.Params, log logrus.FieldLogger) error {
	tip, err := store.GetTip()
	if errors.Is(err, blockstore.ErrBlockNotFound) {
		log.Info("Block store is empty, mining the first block")
		return nil
	}
	if err != nil {
		return err
	}

	params.PrevBlock = tip.Header.Hash
	params.Height = tip.Height + 1
	log.WithFields(logrus.Fields{
		"height": tip.Height,
		"hash":   block.HashHex(tip.Header.Hash),
	}).Info("Extending stored tip")
	return nil
}

// persist archives the block's transactions and appends the block to the
// store. A block that is already stored, or that does not extend the stored
// chain, is logged and left out of the store.
func persist(store *blockstore.BoltStore, cfg config.Config, b *mining.Block, log logrus.FieldLogger) error {
	archive, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "txs"))
	if err != nil {
		return err
	}
	if err := storage.PutTransactions(archive, b.Transactions); err != nil {
		return err
	}

	sb := blockstore.FromBlock(b)
	err = store.PutBlock(sb)
	switch {
	case errors.Is(err, blockstore.ErrDuplicateBlock):
		log.WithField("hash", b.HashHex()).Info("Block already stored")
		return nil
	case errors.Is(err, blockstore.ErrChainBroken):
		log.WithField("hash", b.HashHex()).WithError(err).
			Warn("Block does not extend the stored chain, not storing it; use --extendtip to mine on the tip")
		return nil
	case err != nil:
		return err
	}
	for _, id := range sb.TxIDs {
		if err := blockstore.VerifyTx(store, id); err != nil {
			return fmt.Errorf("verify stored proof: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"height": sb.Height,
		"hash":   b.HashHex(),
	}).Info("Stored block")
	return nil
}
