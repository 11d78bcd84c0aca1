package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/simulator"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/logger"
	"github.com/wfunc/dream-slot/internal/models"
	"github.com/wfunc/dream-slot/internal/repository"
	"go.uber.org/zap"
)

// MaxSimulationSpins 单次模拟允许的最大旋转次数
const MaxSimulationSpins = 1_000_000

// Deps 老虎机服务依赖，仓储与推送均可为空
type Deps struct {
	Machine     *slot.SlotMachine
	SpinRepo    repository.SlotSpinRepository
	MachineRepo repository.SlotMachineRepository
	Publisher   Publisher
	Logger      *zap.Logger
}

// slotService 老虎机服务实现
type slotService struct {
	machine     *slot.SlotMachine
	machineID   string
	spinRepo    repository.SlotSpinRepository
	machineRepo repository.SlotMachineRepository
	publisher   Publisher
	runner      *simulator.Runner
	logger      *zap.Logger
}

// NewSlotService 创建老虎机服务
func NewSlotService(deps Deps) SlotService {
	log := deps.Logger
	if log == nil {
		log = logger.WithModule("game")
	}

	return &slotService{
		machine:     deps.Machine,
		machineID:   deps.Machine.Config().MachineID,
		spinRepo:    deps.SpinRepo,
		machineRepo: deps.MachineRepo,
		publisher:   deps.Publisher,
		runner:      simulator.NewRunner(deps.Machine, log.Named("simulator")),
		logger:      log,
	}
}

// RegisterMachine 保存当前机器配置
func (s *slotService) RegisterMachine(ctx context.Context) error {
	if s.machineRepo == nil {
		return nil
	}

	cfg := s.machine.Config()
	raw, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidConfiguration, "序列化机器配置失败")
	}

	return s.machineRepo.Upsert(ctx, &models.SlotMachine{
		MachineID: cfg.MachineID,
		Name:      cfg.Name,
		Reels:     len(cfg.Reels),
		Rows:      cfg.RowsCount,
		Paylines:  len(cfg.Lines),
		Config:    string(raw),
		Status:    "active",
	})
}

// Spin 执行一次旋转，保存并推送结果
func (s *slotService) Spin(ctx context.Context) (*SpinRecord, error) {
	result, err := s.machine.Spin()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSpinFailed)
	}

	record := newSpinRecord(uuid.NewString(), s.machineID, SourcePlay, result)

	if s.spinRepo != nil {
		start := time.Now()
		err := s.spinRepo.Create(ctx, record.toModel())
		logger.LogDatabaseOperation("insert", "slot_spins", time.Since(start), err)
		if err != nil {
			return nil, err
		}
		if s.machineRepo != nil {
			if err := s.machineRepo.IncrementSpins(ctx, s.machineID, 1); err != nil {
				s.logger.Warn("更新机器旋转次数失败", zap.Error(err))
			}
		}
	}

	s.publish(websocketSpinResult, record)
	logger.LogGameEvent("spin", record.RoundID, map[string]interface{}{
		"machine_id":    s.machineID,
		"total_win":     record.TotalWin,
		"winning_lines": record.WinningLines,
	})

	return record, nil
}

// Replay 按记录的卷轴位置重新计算并与记录比较
func (s *slotService) Replay(ctx context.Context, roundID string) (*ReplayResult, error) {
	recorded, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if recorded.MachineID != s.machineID {
		return nil, apperrors.Newf(apperrors.ErrReplayMismatch,
			"回合 %s 属于机器 %s，当前机器为 %s", roundID, recorded.MachineID, s.machineID)
	}

	result, err := s.machine.Replay(recorded.StartPositions)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrReplayMismatch, "回合 %s 无法回放", roundID)
	}

	replayed := newSpinRecord(recorded.RoundID, s.machineID, recorded.Source, result)
	replayed.CreatedAt = recorded.CreatedAt
	if !sameOutcome(recorded, replayed) {
		s.logger.Error("回放结果与记录不一致",
			zap.String("round_id", roundID),
			zap.Int64("recorded_win", recorded.TotalWin),
			zap.Int64("replayed_win", replayed.TotalWin))
		return nil, apperrors.Newf(apperrors.ErrReplayMismatch,
			"回合 %s 记录赔付 %d，回放赔付 %d", roundID, recorded.TotalWin, replayed.TotalWin)
	}

	return &ReplayResult{Recorded: recorded, Replayed: replayed, Match: true}, nil
}

// GetRound 查询单个回合
func (s *slotService) GetRound(ctx context.Context, roundID string) (*SpinRecord, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	spin, err := s.spinRepo.FindByRoundID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return fromModel(spin), nil
}

// History 分页查询旋转记录
func (s *slotService) History(ctx context.Context, filter repository.SpinFilter, pagination *repository.Pagination) ([]*SpinRecord, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	if pagination == nil {
		pagination = repository.NewPagination(1, 0)
	}
	spins, err := s.spinRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, err
	}

	records := make([]*SpinRecord, len(spins))
	for i, spin := range spins {
		records[i] = fromModel(spin)
	}
	return records, nil
}

// Statistics 统计旋转记录
func (s *slotService) Statistics(ctx context.Context, filter repository.SpinFilter) (*repository.SpinStatistics, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	return s.spinRepo.GetStatistics(ctx, filter)
}

// Simulate 执行批量模拟
func (s *slotService) Simulate(ctx context.Context, req *SimulateRequest) (*simulator.Summary, error) {
	if req == nil {
		req = &SimulateRequest{}
	}
	if req.Spins > MaxSimulationSpins {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "模拟次数不能超过 %d", MaxSimulationSpins)
	}
	if req.Record {
		if err := s.requireStorage(); err != nil {
			return nil, err
		}
	}

	opts := simulator.Options{Spins: req.Spins, Workers: req.Workers, Seed: req.Seed}
	var collector *simulator.Collector
	if req.Record {
		collector = simulator.NewCollector()
		opts.OnSpin = collector.OnSpin
	}

	summary, err := s.runner.Run(ctx, opts)
	switch {
	case errors.Is(err, context.Canceled):
		return summary, apperrors.Newf(apperrors.ErrCanceled,
			"模拟在完成 %d 次旋转后取消", summary.TotalSpins).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return summary, apperrors.Newf(apperrors.ErrTimeout,
			"模拟在完成 %d 次旋转后超时", summary.TotalSpins).WithCause(err)
	case err != nil:
		return summary, apperrors.Wrap(err, apperrors.ErrSimulationFailed)
	}

	if collector != nil {
		spins := make([]*models.SlotSpin, 0, summary.Succeeded)
		for _, result := range collector.Results(summary.TotalSpins) {
			if result == nil {
				continue
			}
			spins = append(spins, newSpinRecord(uuid.NewString(), s.machineID, SourceSimulation, result).toModel())
		}

		start := time.Now()
		err := s.spinRepo.BatchCreate(ctx, spins)
		logger.LogDatabaseOperation("batch_insert", "slot_spins", time.Since(start), err)
		if err != nil {
			return summary, err
		}
	}

	logger.LogSimulation(summary.MachineID, summary.TotalSpins, summary.TotalWin, summary.Failed, summary.Duration)
	s.publish(websocketSimulationDone, summary)

	return summary, nil
}

// Config 获取机器配置
func (s *slotService) Config() *slot.MachineConfig {
	return s.machine.Config()
}

// PayTable 获取赔率表
func (s *slotService) PayTable() []slot.PayTableEntry {
	return s.machine.PayTable()
}

func (s *slotService) requireStorage() error {
	if s.spinRepo == nil {
		return apperrors.New(apperrors.ErrNotImplemented, "未启用数据库，无法查询旋转记录")
	}
	return nil
}

func (s *slotService) publish(msgType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(msgType, s.machineID, data); err != nil {
		s.logger.Warn("推送消息失败", zap.String("type", msgType), zap.Error(err))
	}
}

// 推送的消息类型
const (
	websocketSpinResult     = "spin_result"
	websocketSimulationDone = "simulation_done"
)
