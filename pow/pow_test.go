package pow

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libminer-go/block"
)

var (
	testPreimage = []byte("libminer")

	// Solutions for testPreimage below 2000: 140, 339, 1549.
	testTarget = block.MustParseTarget("00" + strings.Repeat("f", 62))

	impossibleTarget = block.MustParseTarget(strings.Repeat("0", 63) + "1")
)

// --- NonceRange tests ---

func TestNonceRange_Size(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint32)+1, FullRange().Size())
	assert.Equal(t, uint64(1), NonceRange{Start: 7, End: 7}.Size())
	assert.Equal(t, uint64(0), NonceRange{Start: 8, End: 7}.Size())
}

// --- Search tests ---

func TestSearch_FirstSolution(t *testing.T) {
	res, err := Search(context.Background(), testPreimage, testTarget, FullRange())
	require.NoError(t, err)

	assert.Equal(t, uint32(140), res.Nonce)
	assert.Equal(t, uint64(141), res.Attempts)
	assert.Equal(t, "000f1c467c7c45a9d1d3fb5f0cb81db64eefe8d79835736948cd5419895bc843", res.HashHex())
	assert.Equal(t, block.DoubleDigest(block.SealedPreimage(testPreimage, 140)), res.Hash)
}

func TestSearch_RespectsRangeStart(t *testing.T) {
	res, err := Search(context.Background(), testPreimage, testTarget, NonceRange{Start: 141, End: 2000})
	require.NoError(t, err)
	assert.Equal(t, uint32(339), res.Nonce)
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	target := block.MustParseTarget("1" + strings.Repeat("f", 63))
	for _, pre := range []string{"a", "bb", "ccc", "header"} {
		t.Run(pre, func(t *testing.T) {
			want := int64(-1)
			for n := uint32(0); n < 512; n++ {
				h := block.HashHex(block.DoubleDigest(block.SealedPreimage([]byte(pre), n)))
				if h < target.String() {
					want = int64(n)
					break
				}
			}
			require.NotEqual(t, int64(-1), want, "fixture has no solution below 512")

			res, err := Search(context.Background(), []byte(pre), target, NonceRange{Start: 0, End: 511})
			require.NoError(t, err)
			assert.Equal(t, uint32(want), res.Nonce)
		})
	}
}

func TestSearch_Exhausted(t *testing.T) {
	_, err := Search(context.Background(), testPreimage, testTarget, NonceRange{Start: 0, End: 139})
	assert.ErrorIs(t, err, ErrSearchExhausted)
	assert.True(t, IsRetryable(err))
}

func TestSearch_MaxNonceDoesNotWrap(t *testing.T) {
	r := NonceRange{Start: math.MaxUint32 - 3, End: math.MaxUint32}
	_, err := Search(context.Background(), testPreimage, impossibleTarget, r)
	assert.ErrorIs(t, err, ErrSearchExhausted)
}

func TestSearch_InvalidArgs(t *testing.T) {
	ctx := context.Background()

	_, err := Search(ctx, nil, testTarget, FullRange())
	assert.ErrorIs(t, err, ErrEmptyPreimage)

	_, err = Search(ctx, testPreimage, block.Target{}, FullRange())
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = Search(ctx, testPreimage, block.MustParseTarget(strings.Repeat("0", 64)), FullRange())
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = Search(ctx, testPreimage, testTarget, NonceRange{Start: 2, End: 1})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, testPreimage, testTarget, FullRange())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
}

// --- Mine tests ---

func TestMine_SameResultForAnyWorkerCount(t *testing.T) {
	seq, err := Search(context.Background(), testPreimage, testTarget, FullRange())
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 4, 8} {
		for _, chunk := range []uint32{1, 7, 16, 1 << 10} {
			res, err := Mine(context.Background(), testPreimage, testTarget, Options{
				Workers:   workers,
				ChunkSize: chunk,
			})
			require.NoError(t, err, "workers=%d chunk=%d", workers, chunk)
			assert.Equal(t, seq.Nonce, res.Nonce, "workers=%d chunk=%d", workers, chunk)
			assert.Equal(t, seq.Hash, res.Hash, "workers=%d chunk=%d", workers, chunk)
			assert.GreaterOrEqual(t, res.Attempts, uint64(141))
		}
	}
}

func TestMine_Range(t *testing.T) {
	res, err := Mine(context.Background(), testPreimage, testTarget, Options{
		Workers:   3,
		ChunkSize: 32,
		Range:     &NonceRange{Start: 340, End: 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1549), res.Nonce)
}

func TestMine_Exhausted(t *testing.T) {
	_, err := Mine(context.Background(), testPreimage, testTarget, Options{
		Workers:   4,
		ChunkSize: 8,
		Range:     &NonceRange{Start: 0, End: 139},
	})
	assert.ErrorIs(t, err, ErrSearchExhausted)
}

func TestMine_Timeout(t *testing.T) {
	_, err := Mine(context.Background(), testPreimage, impossibleTarget, Options{
		Workers: 2,
		Timeout: 50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrSearchTimeout)
	assert.True(t, IsRetryable(err))
}

func TestMine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Mine(ctx, testPreimage, impossibleTarget, Options{Workers: 2})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrSearchTimeout))
}

func TestMine_Progress(t *testing.T) {
	var calls atomic.Int32
	_, err := Mine(context.Background(), testPreimage, impossibleTarget, Options{
		Timeout:          200 * time.Millisecond,
		ProgressInterval: 10 * time.Millisecond,
		OnProgress: func(p Progress) {
			calls.Add(1)
			assert.Greater(t, p.Elapsed, time.Duration(0))
		},
	})
	require.ErrorIs(t, err, ErrSearchTimeout)
	assert.Greater(t, calls.Load(), int32(0))
}

func TestProgress_HashRate(t *testing.T) {
	assert.Equal(t, 0.0, Progress{Attempts: 10}.HashRate())
	assert.InDelta(t, 500.0, Progress{Attempts: 1000, Elapsed: 2 * time.Second}.HashRate(), 1e-9)
}

func BenchmarkSearch(b *testing.B) {
	s := newSearcher(make([]byte, block.PreimageSize), &impossibleTarget)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.try(uint32(i))
	}
}
