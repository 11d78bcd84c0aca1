package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dream-slot/internal/config"
	"github.com/wfunc/dream-slot/internal/database"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/models"
	"github.com/wfunc/dream-slot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type published struct {
	msgType   string
	machineID string
	data      interface{}
}

// fakePublisher 记录推送的消息
type fakePublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *fakePublisher) Publish(msgType, machineID string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{msgType, machineID, data})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.msgType
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newTestService(t *testing.T, withDB bool) (SlotService, *fakePublisher, *gorm.DB) {
	t.Helper()
	machine, err := slot.NewSlotMachine(slot.GetDefaultConfig(), slot.WithRandom(slot.NewSeededRandomGenerator(7)))
	require.NoError(t, err)

	pub := &fakePublisher{}
	deps := Deps{Machine: machine, Publisher: pub, Logger: zap.NewNop()}

	var db *gorm.DB
	if withDB {
		db = newTestDB(t)
		deps.SpinRepo = repository.NewSlotSpinRepository(db)
		deps.MachineRepo = repository.NewSlotMachineRepository(db)
	}
	return NewSlotService(deps), pub, db
}

func TestSlotService_SpinPersistsAndPublishes(t *testing.T) {
	svc, pub, db := newTestService(t, true)
	ctx := context.Background()
	require.NoError(t, svc.RegisterMachine(ctx))

	record, err := svc.Spin(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, record.RoundID)
	assert.Equal(t, "dream_slot", record.MachineID)
	assert.Equal(t, SourcePlay, record.Source)
	assert.Len(t, record.StartPositions, 5)
	assert.Len(t, record.Screen, 3)
	assert.Len(t, record.Lines, 10)

	var sum int64
	for i, l := range record.Lines {
		assert.Equal(t, i+1, l.LineNumber)
		sum += l.Payout
	}
	assert.Equal(t, sum, record.TotalWin)

	stored, err := svc.GetRound(ctx, record.RoundID)
	require.NoError(t, err)
	assert.Equal(t, record.StartPositions, stored.StartPositions)
	assert.Equal(t, record.Screen, stored.Screen)
	assert.Equal(t, record.TotalWin, stored.TotalWin)
	assert.True(t, sameOutcome(record, stored))

	var machine models.SlotMachine
	require.NoError(t, db.Where("machine_id = ?", "dream_slot").First(&machine).Error)
	assert.Equal(t, int64(1), machine.TotalSpins)
	assert.Equal(t, 10, machine.Paylines)

	assert.Equal(t, []string{"spin_result"}, pub.types())
}

func TestSlotService_SpinWithoutStorage(t *testing.T) {
	svc, pub, _ := newTestService(t, false)
	ctx := context.Background()

	require.NoError(t, svc.RegisterMachine(ctx))
	record, err := svc.Spin(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, record.RoundID)
	assert.Len(t, pub.types(), 1)

	_, err = svc.GetRound(ctx, record.RoundID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotImplemented))
	_, err = svc.History(ctx, repository.SpinFilter{}, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotImplemented))
	_, err = svc.Statistics(ctx, repository.SpinFilter{})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotImplemented))
	_, err = svc.Simulate(ctx, &SimulateRequest{Spins: 10, Record: true})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotImplemented))
}

func TestSlotService_Replay(t *testing.T) {
	svc, _, db := newTestService(t, true)
	ctx := context.Background()

	record, err := svc.Spin(ctx)
	require.NoError(t, err)

	t.Run("结果一致", func(t *testing.T) {
		res, err := svc.Replay(ctx, record.RoundID)
		require.NoError(t, err)
		assert.True(t, res.Match)
		assert.Equal(t, record.Screen, res.Replayed.Screen)
		assert.Equal(t, record.TotalWin, res.Replayed.TotalWin)
	})

	t.Run("回合不存在", func(t *testing.T) {
		_, err := svc.Replay(ctx, "missing")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("记录被篡改", func(t *testing.T) {
		require.NoError(t, db.Model(&models.SlotSpin{}).
			Where("round_id = ?", record.RoundID).
			Update("total_win", record.TotalWin+1000).Error)

		_, err := svc.Replay(ctx, record.RoundID)
		assert.True(t, apperrors.Is(err, apperrors.ErrReplayMismatch))
	})

	t.Run("其他机器的回合", func(t *testing.T) {
		other := &models.SlotSpin{
			RoundID:   "other-round",
			MachineID: "classic_three",
			Source:    SourcePlay,
			ReelStops: []int{0, 0, 0},
			Screen:    [][]int{{1, 1, 1}},
		}
		require.NoError(t, repository.NewSlotSpinRepository(db).Create(ctx, other))

		_, err := svc.Replay(ctx, "other-round")
		assert.True(t, apperrors.Is(err, apperrors.ErrReplayMismatch))
	})
}

func TestSlotService_HistoryAndStatistics(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	ctx := context.Background()

	var total int64
	winning := 0
	for i := 0; i < 15; i++ {
		record, err := svc.Spin(ctx)
		require.NoError(t, err)
		total += record.TotalWin
		if record.TotalWin > 0 {
			winning++
		}
	}

	page, err := svc.History(ctx, repository.SpinFilter{MachineID: "dream_slot"}, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page, 10)

	page, err = svc.History(ctx, repository.SpinFilter{MachineID: "dream_slot"}, repository.NewPagination(2, 10))
	require.NoError(t, err)
	assert.Len(t, page, 5)

	stats, err := svc.Statistics(ctx, repository.SpinFilter{MachineID: "dream_slot"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), stats.TotalSpins)
	assert.Equal(t, total, stats.TotalWin)
	assert.Equal(t, int64(winning), stats.WinningSpins)
}

func TestSlotService_Simulate(t *testing.T) {
	ctx := context.Background()

	t.Run("只返回汇总", func(t *testing.T) {
		svc, pub, _ := newTestService(t, false)
		summary, err := svc.Simulate(ctx, &SimulateRequest{Spins: 200, Workers: 2, Seed: 3})
		require.NoError(t, err)
		assert.Equal(t, 200, summary.TotalSpins)
		assert.Equal(t, 200, summary.Succeeded)
		assert.Equal(t, []string{"simulation_done"}, pub.types())
	})

	t.Run("保存每次旋转", func(t *testing.T) {
		svc, _, _ := newTestService(t, true)
		summary, err := svc.Simulate(ctx, &SimulateRequest{Spins: 50, Workers: 2, Seed: 9, Record: true})
		require.NoError(t, err)

		stats, err := svc.Statistics(ctx, repository.SpinFilter{Source: SourceSimulation})
		require.NoError(t, err)
		assert.Equal(t, int64(50), stats.TotalSpins)
		assert.Equal(t, summary.TotalWin, stats.TotalWin)

		stats, err = svc.Statistics(ctx, repository.SpinFilter{Source: SourcePlay})
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalSpins)
	})

	t.Run("超过上限", func(t *testing.T) {
		svc, _, _ := newTestService(t, false)
		_, err := svc.Simulate(ctx, &SimulateRequest{Spins: MaxSimulationSpins + 1})
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
	})

	t.Run("默认参数", func(t *testing.T) {
		svc, _, _ := newTestService(t, false)
		summary, err := svc.Simulate(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 100, summary.TotalSpins)
	})

	t.Run("取消", func(t *testing.T) {
		svc, pub, _ := newTestService(t, false)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		summary, err := svc.Simulate(cctx, &SimulateRequest{Spins: 100, Seed: 1})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrCanceled), err.Error())
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, summary)
		assert.Equal(t, 0, summary.TotalSpins)
		assert.Empty(t, pub.types())
	})

	t.Run("超时", func(t *testing.T) {
		svc, _, _ := newTestService(t, false)
		tctx, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()

		_, err := svc.Simulate(tctx, &SimulateRequest{Spins: 100, Seed: 1})
		assert.True(t, apperrors.Is(err, apperrors.ErrTimeout), err.Error())
	})
}

func TestSlotService_ConfigAndPayTable(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	cfg := svc.Config()
	assert.Equal(t, "dream_slot", cfg.MachineID)
	assert.NotEmpty(t, svc.PayTable())
}
