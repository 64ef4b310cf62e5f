package pow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/libminer-go/block"
)

// DefaultChunkSize is the number of consecutive nonces a worker claims at a time.
const DefaultChunkSize uint32 = 1 << 16

// DefaultProgressInterval is how often OnProgress is called when set.
const DefaultProgressInterval = 10 * time.Second

// Progress is a snapshot of a running search.
type Progress struct {
	Attempts uint64
	Elapsed  time.Duration
}

// HashRate returns hashes per second.
func (p Progress) HashRate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Attempts) / p.Elapsed.Seconds()
}

// Options configures Mine. The zero value searches the full nonce domain
// with one worker and no time limit.
type Options struct {
	Workers          int
	ChunkSize        uint32
	Timeout          time.Duration
	Range            *NonceRange // nil = FullRange()
	ProgressInterval time.Duration
	OnProgress       func(Progress)
}

// Mine searches for the smallest nonce in the configured range whose header
// hash sorts below target.
//
// The range is cut into contiguous chunks claimed in ascending order by
// Workers goroutines. A worker that finds a solution lowers a shared bound;
// chunks at or above the bound are abandoned. Chunks below it still run to
// completion, so the returned nonce is always the smallest solution in the
// range, whatever the worker count.
func Mine(ctx context.Context, preimage []byte, target block.Target, opts Options) (*Result, error) {
	r := FullRange()
	if opts.Range != nil {
		r = *opts.Range
	}
	if err := checkArgs(preimage, &target, r); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	chunk := uint64(opts.ChunkSize)
	if chunk == 0 {
		chunk = uint64(DefaultChunkSize)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		start    = time.Now()
		end      = uint64(r.End)
		next     atomic.Uint64 // start of the next unclaimed chunk
		best     atomic.Uint64 // smallest solving nonce so far; end+1 = none
		attempts atomic.Uint64

		mu       sync.Mutex
		bestHash chainhash.Hash
	)
	next.Store(uint64(r.Start))
	best.Store(end + 1)

	stopProgress := startProgress(opts, start, &attempts)
	defer stopProgress()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			s := newSearcher(preimage, &target)
			for {
				lo := next.Add(chunk) - chunk
				if lo > end || lo >= best.Load() {
					return nil
				}
				hi := min(lo+chunk-1, end)

				var scanned uint64
				for n := lo; n <= hi; n++ {
					if scanned&(checkInterval-1) == 0 {
						if n >= best.Load() {
							break
						}
						if err := gctx.Err(); err != nil {
							attempts.Add(scanned)
							return err
						}
					}
					scanned++
					if h, ok := s.try(uint32(n)); ok {
						mu.Lock()
						if n < best.Load() {
							best.Store(n)
							bestHash = h
						}
						mu.Unlock()
						break
					}
				}
				attempts.Add(scanned)
			}
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrSearchTimeout, time.Since(start).Round(time.Millisecond), err)
		}
		return nil, err
	}

	nonce := best.Load()
	if nonce > end {
		return nil, fmt.Errorf("%w: nonces %d..%d", ErrSearchExhausted, r.Start, r.End)
	}

	return &Result{
		Hash:     bestHash,
		Nonce:    uint32(nonce),
		Attempts: attempts.Load(),
	}, nil
}

// startProgress reports attempts every ProgressInterval until the returned
// stop function is called.
func startProgress(opts Options, start time.Time, attempts *atomic.Uint64) func() {
	if opts.OnProgress == nil {
		return func() {}
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				opts.OnProgress(Progress{
					Attempts: attempts.Load(),
					Elapsed:  time.Since(start),
				})
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
