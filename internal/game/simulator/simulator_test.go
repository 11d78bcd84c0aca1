package simulator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/slot"
)

func newTestMachine(t *testing.T) *slot.SlotMachine {
	t.Helper()
	m, err := slot.NewSlotMachine(slot.GetDefaultConfig(), slot.WithRandom(slot.NewSeededRandomGenerator(1)))
	require.NoError(t, err)
	return m
}

func TestRunner_Defaults(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)

	summary, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSpins, summary.TotalSpins)
	assert.Equal(t, DefaultSpins, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Workers)
	assert.Equal(t, "dream_slot", summary.MachineID)
}

func TestRunner_TotalsMatchResults(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)
	c := NewCollector()

	summary, err := r.Run(context.Background(), Options{Spins: 300, Workers: 4, Seed: 11, OnSpin: c.OnSpin})
	require.NoError(t, err)

	var total, maxWin int64
	winning := 0
	for i, res := range c.Results(300) {
		require.NotNil(t, res, "index=%d", i)
		total += res.TotalWin
		if res.TotalWin > 0 {
			winning++
		}
		if res.TotalWin > maxWin {
			maxWin = res.TotalWin
		}
	}

	assert.Equal(t, 300, summary.Succeeded)
	assert.Equal(t, total, summary.TotalWin)
	assert.Equal(t, winning, summary.WinningSpins)
	assert.Equal(t, maxWin, summary.MaxWin)
	assert.InDelta(t, float64(winning)/300, summary.HitFrequency, 1e-9)
	assert.InDelta(t, float64(total)/300, summary.AverageWin, 1e-9)
}

func TestRunner_SeedIsReproducible(t *testing.T) {
	opts := Options{Spins: 200, Workers: 3, Seed: 2024}

	a, err := NewRunner(newTestMachine(t), nil).Run(context.Background(), opts)
	require.NoError(t, err)
	b, err := NewRunner(newTestMachine(t), nil).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, a.TotalWin, b.TotalWin)
	assert.Equal(t, a.WinningSpins, b.WinningSpins)
	assert.Equal(t, a.SymbolHits, b.SymbolHits)
}

func TestRunner_FailuresDoNotAbort(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)
	var calls int64
	r.spin = func(m *slot.SlotMachine) (*slot.SpinResult, error) {
		n := atomic.AddInt64(&calls, 1)
		switch n % 10 {
		case 3:
			return nil, errors.New("reel jammed")
		case 7:
			panic("boom")
		}
		return m.Spin()
	}

	summary, err := r.Run(context.Background(), Options{Spins: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, summary.TotalSpins)
	assert.Equal(t, 20, summary.Failed)
	assert.Equal(t, 80, summary.Succeeded)
	require.Len(t, summary.Failures, 20)

	for _, f := range summary.Failures {
		assert.True(t, apperrors.Is(f.Err, apperrors.ErrSpinFailed), f.Error)
	}
	assert.Equal(t, 2, summary.Failures[0].Index)
	assert.Contains(t, summary.Failures[1].Error, "boom")
}

func TestRunner_OnSpinPanicIsIsolated(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)

	summary, err := r.Run(context.Background(), Options{
		Spins: 10,
		OnSpin: func(index int, _ *slot.SpinResult) {
			if index == 4 {
				panic("callback failed")
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, 4, summary.Failures[0].Index)
}

func TestRunner_Cancel(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)
	ctx, cancel := context.WithCancel(context.Background())

	summary, err := r.Run(ctx, Options{
		Spins: 1000,
		OnSpin: func(index int, _ *slot.SpinResult) {
			if index == 9 {
				cancel()
			}
		},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 10, summary.TotalSpins)
	assert.Equal(t, 10, summary.Succeeded)
}

func TestRunner_WorkersCappedBySpins(t *testing.T) {
	r := NewRunner(newTestMachine(t), nil)

	summary, err := r.Run(context.Background(), Options{Spins: 3, Workers: 16})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Workers)
	assert.Equal(t, 3, summary.TotalSpins)
}

// countingReporter 统计输出次数
type countingReporter struct {
	stops, spins atomic.Int64
}

func (r *countingReporter) ReelsStopped([]int)             { r.stops.Add(1) }
func (r *countingReporter) SpinCompleted(*slot.SpinResult) { r.spins.Add(1) }

func TestRunner_MultipleWorkersAreQuiet(t *testing.T) {
	testCases := []struct {
		name    string
		opts    Options
		reports int64
	}{
		{"单worker输出每次旋转", Options{Spins: 40, Workers: 1}, 40},
		{"单worker固定种子", Options{Spins: 40, Workers: 1, Seed: 5}, 40},
		{"多worker不输出", Options{Spins: 40, Workers: 4}, 0},
		{"多worker固定种子", Options{Spins: 40, Workers: 4, Seed: 5}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rep := &countingReporter{}
			m, err := slot.NewSlotMachine(slot.GetDefaultConfig(),
				slot.WithRandom(slot.NewSeededRandomGenerator(1)),
				slot.WithReporter(rep))
			require.NoError(t, err)

			summary, err := NewRunner(m, nil).Run(context.Background(), tc.opts)
			require.NoError(t, err)
			assert.Equal(t, 40, summary.Succeeded)
			assert.Equal(t, tc.reports, rep.spins.Load())
			assert.Equal(t, tc.reports, rep.stops.Load())
		})
	}
}
