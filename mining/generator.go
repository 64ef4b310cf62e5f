package mining

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/logging"
	"github.com/bitfsorg/libminer-go/pow"
	"github.com/bitfsorg/libminer-go/tx"
)

// DefaultMaxExtraNonce is how many extranonce values Generate tries after the
// nonce space of the first template is exhausted.
const DefaultMaxExtraNonce = 16

// Candidate is one transaction offered for inclusion.
type Candidate struct {
	Source string     // where the record came from, e.g. a file name
	Record *tx.Record // nil when Err is set
	Err    error      // decoding failure
}

// Rejection records why a candidate was left out of the block.
type Rejection struct {
	Source string
	Err    error
}

// Options tune the generator. The zero value is usable.
type Options struct {
	Workers          int // validation and search goroutines; < 1 means 1
	SearchTimeout    time.Duration
	MaxExtraNonce    uint64 // 0 = DefaultMaxExtraNonce
	ProgressInterval time.Duration
	NonceRange       *pow.NonceRange    // nil = every 32-bit nonce
	Log              logrus.FieldLogger // nil = discard
}

// Generator builds and solves block templates.
type Generator struct {
	params Params
	opts   Options
	log    logrus.FieldLogger
}

// NewGenerator returns a Generator for params.
func NewGenerator(params Params, opts Options) (*Generator, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxExtraNonce == 0 {
		opts.MaxExtraNonce = DefaultMaxExtraNonce
	}

	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	return &Generator{params: params, opts: opts, log: log}, nil
}

// Params returns the generator's block parameters.
func (g *Generator) Params() Params {
	return g.params
}

// FilterCandidates validates candidates concurrently and returns the accepted
// transactions, finalized and in their original relative order, plus one
// Rejection per candidate left out. A candidate is rejected when it failed to
// decode, fails tx.ValidateCandidate, or repeats an earlier identifier.
func (g *Generator) FilterCandidates(ctx context.Context, candidates []Candidate) ([]*tx.Transaction, []Rejection, error) {
	verdicts := make([]error, len(candidates))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i := range candidates {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdicts[i] = checkCandidate(&candidates[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		accepted []*tx.Transaction
		rejected []Rejection
		seen     = make(map[chainhash.Hash]string, len(candidates))
	)
	for i := range candidates {
		c := &candidates[i]
		err := verdicts[i]
		if err == nil {
			if prev, dup := seen[c.Record.Tx.ID]; dup {
				err = fmt.Errorf("%w: same identifier as %s", ErrDuplicateTransaction, prev)
			}
		}
		if err != nil {
			g.log.WithFields(logrus.Fields{"source": c.Source}).WithError(err).Warn("Rejected candidate transaction")
			rejected = append(rejected, Rejection{Source: c.Source, Err: err})
			continue
		}

		t := c.Record.Tx
		seen[t.ID] = c.Source
		if c.Record.DeclaredID != "" && c.Record.DeclaredID != t.IDHex() {
			g.log.WithFields(logrus.Fields{
				"source":   c.Source,
				"declared": c.Record.DeclaredID,
				"txid":     t.IDHex(),
			}).Debug("Declared txid ignored")
		}
		accepted = append(accepted, t)
	}

	g.log.WithFields(logrus.Fields{
		"accepted": len(accepted),
		"rejected": len(rejected),
	}).Info("Filtered candidate transactions")

	return accepted, rejected, nil
}

// checkCandidate validates one candidate and, on success, finalizes its
// identifier.
func checkCandidate(c *Candidate) error {
	if c.Err != nil {
		return c.Err
	}
	if c.Record == nil || c.Record.Tx == nil {
		return fmt.Errorf("%w: empty record", tx.ErrMalformedTransaction)
	}
	if err := tx.ValidateCandidate(c.Record.Tx); err != nil {
		return err
	}
	c.Record.Tx.Finalize()
	return nil
}

// Generate filters candidates, builds a template stamped with timestamp and
// searches its nonce space. When the nonce space is exhausted the coinbase
// extranonce is bumped, which changes the Merkle root, and the search starts
// over, up to MaxExtraNonce times.
func (g *Generator) Generate(ctx context.Context, candidates []Candidate, timestamp uint32) (*Block, error) {
	accepted, rejected, err := g.FilterCandidates(ctx, candidates)
	if err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{
		"target":   g.params.Target.String(),
		"expected": block.ExpectedAttempts(g.params.Target).String(),
	}).Info("Starting proof-of-work search")

	nonces := pow.FullRange()
	if g.opts.NonceRange != nil {
		nonces = *g.opts.NonceRange
	}

	var attempts uint64
	for extraNonce, more := uint64(0), true; more; extraNonce, more = nextExtraNonce(extraNonce, g.opts.MaxExtraNonce) {
		tmpl, err := g.NewTemplate(accepted, timestamp, extraNonce)
		if err != nil {
			return nil, err
		}

		res, err := pow.Mine(ctx, tmpl.Preimage(), g.params.Target, pow.Options{
			Workers:          g.opts.Workers,
			Timeout:          g.opts.SearchTimeout,
			Range:            &nonces,
			ProgressInterval: g.opts.ProgressInterval,
			OnProgress:       g.logProgress,
		})
		if errors.Is(err, pow.ErrSearchExhausted) {
			attempts += nonces.Size()
			g.log.WithFields(logrus.Fields{"extranonce": extraNonce}).Warn("Nonce space exhausted, bumping extranonce")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("mining: search: %w", err)
		}
		attempts += res.Attempts

		b := newBlock(tmpl, res, rejected, attempts)
		g.log.WithFields(logrus.Fields{
			"hash":       b.HashHex(),
			"nonce":      res.Nonce,
			"extranonce": extraNonce,
			"attempts":   attempts,
			"txs":        len(b.Transactions),
		}).Info("Found block")
		return b, nil
	}

	return nil, fmt.Errorf("%w: last extranonce %d", ErrExtraNonceExhausted, g.opts.MaxExtraNonce)
}

// nextExtraNonce returns the extranonce after cur, or false once cur has
// reached max. It never wraps, so max may be math.MaxUint64.
func nextExtraNonce(cur, max uint64) (uint64, bool) {
	if cur >= max {
		return cur, false
	}
	return cur + 1, true
}

func (g *Generator) logProgress(p pow.Progress) {
	g.log.WithFields(logrus.Fields{
		"attempts": p.Attempts,
	}).Debugf("Current hash rate is %.2f Khash/s", p.HashRate()/1000)
}
