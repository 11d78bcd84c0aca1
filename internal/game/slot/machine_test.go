package slot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
)

// recordingReporter 记录通知内容
type recordingReporter struct {
	mu      sync.Mutex
	stops   [][]int
	results []*SpinResult
}

func (r *recordingReporter) ReelsStopped(startPositions []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, startPositions)
}

func (r *recordingReporter) SpinCompleted(result *SpinResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestNewSlotMachine(t *testing.T) {
	m, err := NewSlotMachine(GetDefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, m)

	bad := GetDefaultConfig()
	bad.Reels[0] = nil
	m, err = NewSlotMachine(bad)
	assert.Nil(t, m)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfiguration))
}

func TestSlotMachine_SpinTotalWin(t *testing.T) {
	m, err := NewSlotMachine(GetDefaultConfig(), WithRandom(NewSeededRandomGenerator(7)))
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		result, err := m.Spin()
		require.NoError(t, err)
		require.Len(t, result.LineResults, 10)

		var sum int64
		for _, lr := range result.LineResults {
			assert.GreaterOrEqual(t, lr.Payout, int64(0))
			sum += lr.Payout
		}
		assert.Equal(t, sum, result.TotalWin)
	}
}

func TestSlotMachine_KnownScreen(t *testing.T) {
	cfg := &MachineConfig{
		Reels:     ReelSet{{7, 1}, {7, 1}, {7, 1}, {3, 1}},
		RowsCount: 2,
		Lines:     []Payline{{0, 0, 0, 0}, {1, 1, 1, 1}},
		Symbols:   map[SymbolID][]int64{7: {5, 20, 100}, 1: {0, 0, 0, 8}},
	}
	m, err := NewSlotMachine(cfg, WithRandom(&sequenceRandom{values: []int{0}}))
	require.NoError(t, err)

	result, err := m.Spin()
	require.NoError(t, err)
	assert.Equal(t, Screen{{7, 7, 7, 3}, {1, 1, 1, 1}}, result.Screen)
	assert.Equal(t, []int{0, 0, 0, 0}, result.StartPositions)
	assert.Equal(t, int64(100), result.LineResults[0].Payout)
	assert.Equal(t, int64(8), result.LineResults[1].Payout)
	assert.Equal(t, int64(108), result.TotalWin)
	assert.Equal(t, 2, result.WinningLines())
}

func TestSlotMachine_ZeroPaylines(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Lines = nil
	m, err := NewSlotMachine(cfg)
	require.NoError(t, err)

	result, err := m.Spin()
	require.NoError(t, err)
	assert.Empty(t, result.LineResults)
	assert.Equal(t, int64(0), result.TotalWin)
	assert.Len(t, result.Screen, cfg.RowsCount)
}

func TestSlotMachine_Reporter(t *testing.T) {
	rep := &recordingReporter{}
	m, err := NewSlotMachine(GetDefaultConfig(), WithReporter(rep))
	require.NoError(t, err)

	result, err := m.Spin()
	require.NoError(t, err)

	require.Len(t, rep.stops, 1)
	require.Len(t, rep.results, 1)
	assert.Equal(t, result.StartPositions, rep.stops[0])
	assert.Same(t, result, rep.results[0])
}

func TestSlotMachine_ConfigNotMutated(t *testing.T) {
	cfg := GetDefaultConfig()
	m, err := NewSlotMachine(cfg, WithRandom(NewSeededRandomGenerator(3)))
	require.NoError(t, err)

	// 修改调用方持有的配置不影响机器
	cfg.Reels[0] = Reel{}
	cfg.Lines = append(cfg.Lines, Payline{9, 9, 9, 9, 9})

	result, err := m.Spin()
	require.NoError(t, err)
	assert.Len(t, result.LineResults, 10)

	// 修改返回的副本也不影响机器
	got := m.Config()
	got.RowsCount = 99
	assert.Equal(t, 3, m.Config().RowsCount)
	assert.Equal(t, GetDefaultConfig(), m.Config())
}

func TestSlotMachine_Replay(t *testing.T) {
	m, err := NewSlotMachine(GetDefaultConfig())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		result, err := m.Spin()
		require.NoError(t, err)

		replayed, err := m.Replay(result.StartPositions)
		require.NoError(t, err)
		assert.Equal(t, result, replayed)
	}

	_, err = m.Replay([]int{0, 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
}

func TestSlotMachine_ForkDeterminism(t *testing.T) {
	base, err := NewSlotMachine(GetDefaultConfig())
	require.NoError(t, err)

	a := base.Fork(NewSeededRandomGenerator(99))
	b := base.Fork(NewSeededRandomGenerator(99))
	for i := 0; i < 30; i++ {
		ra, err := a.Spin()
		require.NoError(t, err)
		rb, err := b.Spin()
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}

func TestSlotMachine_ConcurrentSpin(t *testing.T) {
	m, err := NewSlotMachine(GetDefaultConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8*100)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := m.Spin(); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSlotMachine_PayTable(t *testing.T) {
	m, err := NewSlotMachine(GetDefaultConfig())
	require.NoError(t, err)

	entries := m.PayTable()
	assert.Len(t, entries, 27)
	assert.Equal(t, PayTableEntry{Symbol: SymbolCherry, Count: 3, Payout: 5}, entries[0])
}
