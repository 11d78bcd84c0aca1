package service

import (
	"context"
	"time"

	"github.com/wfunc/dream-slot/internal/game/simulator"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/repository"
)

// SlotService 老虎机服务接口
type SlotService interface {
	// 旋转
	Spin(ctx context.Context) (*SpinRecord, error)
	Replay(ctx context.Context, roundID string) (*ReplayResult, error)

	// 记录查询
	GetRound(ctx context.Context, roundID string) (*SpinRecord, error)
	History(ctx context.Context, filter repository.SpinFilter, pagination *repository.Pagination) ([]*SpinRecord, error)
	Statistics(ctx context.Context, filter repository.SpinFilter) (*repository.SpinStatistics, error)

	// 批量模拟
	Simulate(ctx context.Context, req *SimulateRequest) (*simulator.Summary, error)

	// 机器信息
	Config() *slot.MachineConfig
	PayTable() []slot.PayTableEntry
	RegisterMachine(ctx context.Context) error
}

// Publisher 旋转结果推送
type Publisher interface {
	Publish(msgType, machineID string, data interface{}) error
}

// LineRecord 单条支付线结果
type LineRecord struct {
	LineNumber int   `json:"line_number"` // 从1开始
	Symbols    []int `json:"symbols"`
	Count      int   `json:"count"`
	Payout     int64 `json:"payout"`
}

// SpinRecord 一次旋转的完整记录
type SpinRecord struct {
	RoundID        string       `json:"round_id"`
	MachineID      string       `json:"machine_id"`
	Source         string       `json:"source"`
	StartPositions []int        `json:"start_positions"`
	Screen         [][]int      `json:"screen"`
	Lines          []LineRecord `json:"lines"`
	TotalWin       int64        `json:"total_win"`
	WinningLines   int          `json:"winning_lines"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ReplayResult 回放结果
type ReplayResult struct {
	Recorded *SpinRecord `json:"recorded"`
	Replayed *SpinRecord `json:"replayed"`
	Match    bool        `json:"match"`
}

// SimulateRequest 批量模拟请求
type SimulateRequest struct {
	Spins   int    `json:"spins" binding:"omitempty,min=1"`
	Workers int    `json:"workers" binding:"omitempty,min=1,max=64"`
	Seed    uint64 `json:"seed"`
	Record  bool   `json:"record"` // 是否保存每次旋转
}

// 旋转来源
const (
	SourcePlay       = "play"
	SourceSimulation = "simulation"
)
