package simulator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSpins 默认模拟次数
const DefaultSpins = 100

// Options 模拟参数
type Options struct {
	Spins   int    `json:"spins"`   // 旋转次数，<=0 时使用 DefaultSpins
	Workers int    `json:"workers"` // 并发数，<=0 时为 1
	Seed    uint64 `json:"seed"`    // 随机种子，0 表示使用机器自身随机源
	// OnSpin 每次成功旋转后回调，多 worker 时会被并发调用
	OnSpin func(index int, result *slot.SpinResult) `json:"-"`
}

// Failure 单次旋转失败记录
type Failure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Summary 模拟汇总
type Summary struct {
	MachineID    string                `json:"machine_id"`
	Seed         uint64                `json:"seed"`
	Workers      int                   `json:"workers"`
	TotalSpins   int                   `json:"total_spins"`
	Succeeded    int                   `json:"succeeded"`
	Failed       int                   `json:"failed"`
	TotalWin     int64                 `json:"total_win"`
	WinningSpins int                   `json:"winning_spins"`
	MaxWin       int64                 `json:"max_win"`
	HitFrequency float64               `json:"hit_frequency"`
	AverageWin   float64               `json:"average_win"`
	SymbolHits   map[slot.SymbolID]int `json:"symbol_hits"`
	Duration     time.Duration         `json:"duration"`
	Failures     []Failure             `json:"failures,omitempty"`
}

// merge 合并 worker 统计
func (s *Summary) merge(o *Summary) {
	s.TotalSpins += o.TotalSpins
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.TotalWin += o.TotalWin
	s.WinningSpins += o.WinningSpins
	if o.MaxWin > s.MaxWin {
		s.MaxWin = o.MaxWin
	}
	for sym, n := range o.SymbolHits {
		s.SymbolHits[sym] += n
	}
	s.Failures = append(s.Failures, o.Failures...)
}

// record 记录一次成功旋转
func (s *Summary) record(result *slot.SpinResult) {
	s.Succeeded++
	s.TotalWin += result.TotalWin
	if result.TotalWin > 0 {
		s.WinningSpins++
	}
	if result.TotalWin > s.MaxWin {
		s.MaxWin = result.TotalWin
	}
	for _, lr := range result.LineResults {
		if lr.Payout > 0 && len(lr.Line) > 0 {
			s.SymbolHits[lr.Line[0]]++
		}
	}
}

func (s *Summary) finish() {
	if s.Succeeded > 0 {
		s.HitFrequency = float64(s.WinningSpins) / float64(s.Succeeded)
		s.AverageWin = float64(s.TotalWin) / float64(s.Succeeded)
	}
}

// Runner 批量模拟执行器
type Runner struct {
	machine *slot.SlotMachine
	logger  *zap.Logger
	spin    func(m *slot.SlotMachine) (*slot.SpinResult, error)
}

// NewRunner 创建模拟执行器
func NewRunner(machine *slot.SlotMachine, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		machine: machine,
		logger:  logger,
		spin:    (*slot.SlotMachine).Spin,
	}
}

// Run 执行批量模拟
//
// 单次旋转的错误或 panic 只记入 Failures，不影响其余旋转。
// ctx 取消时返回已完成部分的汇总以及 ctx.Err()。
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Spins <= 0 {
		opts.Spins = DefaultSpins
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > opts.Spins {
		opts.Workers = opts.Spins
	}

	start := time.Now()
	stats := make([]*Summary, opts.Workers)
	chunk := opts.Spins / opts.Workers
	rem := opts.Spins % opts.Workers

	g, gctx := errgroup.WithContext(ctx)
	offset := 0
	for w := 0; w < opts.Workers; w++ {
		n := chunk
		if w < rem {
			n++
		}
		stats[w] = newSummary()
		m := r.workerMachine(w, opts)
		from := offset
		offset += n

		st := stats[w]
		g.Go(func() error {
			return r.work(gctx, m, from, n, st, opts.OnSpin)
		})
	}
	err := g.Wait()

	// 汇总
	total := newSummary()
	total.MachineID = r.machine.Config().MachineID
	total.Seed = opts.Seed
	total.Workers = opts.Workers
	for _, st := range stats {
		total.merge(st)
	}
	total.finish()
	total.Duration = time.Since(start)

	r.logger.Info("模拟完成",
		zap.String("machine_id", total.MachineID),
		zap.Int("spins", total.TotalSpins),
		zap.Int("failed", total.Failed),
		zap.Int64("total_win", total.TotalWin),
		zap.Duration("duration", total.Duration),
	)

	return total, err
}

// workerMachine 为 worker 准备独立随机源的机器
// 多个 worker 时逐次旋转的输出会交错，只保留汇总
func (r *Runner) workerMachine(worker int, opts Options) *slot.SlotMachine {
	var m *slot.SlotMachine
	switch {
	case opts.Seed != 0:
		m = r.machine.Fork(slot.NewSeededRandomGenerator(opts.Seed + uint64(worker)))
	case opts.Workers == 1:
		return r.machine
	default:
		m = r.machine.Fork(slot.NewCryptoRandomGenerator())
	}
	if opts.Workers > 1 {
		m = m.Silent()
	}
	return m
}

func (r *Runner) work(ctx context.Context, m *slot.SlotMachine, from, n int, st *Summary, onSpin func(int, *slot.SpinResult)) error {
	for i := from; i < from+n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		st.TotalSpins++
		result, err := r.safeSpin(m, i, onSpin)
		if err != nil {
			st.Failed++
			st.Failures = append(st.Failures, Failure{Index: i, Error: err.Error(), Err: err})
			r.logger.Warn("旋转失败", zap.Int("index", i), zap.Error(err))
			continue
		}
		st.record(result)
	}
	return nil
}

// safeSpin 执行单次旋转并把 panic 转换为错误
func (r *Runner) safeSpin(m *slot.SlotMachine, index int, onSpin func(int, *slot.SpinResult)) (result *slot.SpinResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("旋转 panic", zap.Int("index", index), zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			result = nil
			err = apperrors.Newf(apperrors.ErrSpinFailed, "第 %d 次旋转 panic: %v", index, p)
		}
	}()

	result, err = r.spin(m)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSpinFailed, fmt.Sprintf("第 %d 次旋转失败", index))
	}
	if onSpin != nil {
		onSpin(index, result)
	}
	return result, nil
}

func newSummary() *Summary {
	return &Summary{SymbolHits: make(map[slot.SymbolID]int)}
}

// Collector 并发安全地收集旋转结果
type Collector struct {
	mu      sync.Mutex
	results map[int]*slot.SpinResult
}

// NewCollector 创建结果收集器
func NewCollector() *Collector {
	return &Collector{results: make(map[int]*slot.SpinResult)}
}

// OnSpin 可直接作为 Options.OnSpin
func (c *Collector) OnSpin(index int, result *slot.SpinResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[index] = result
}

// Results 按序号返回收集到的结果，缺失的序号为 nil
func (c *Collector) Results(n int) []*slot.SpinResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*slot.SpinResult, n)
	for i := range out {
		out[i] = c.results[i]
	}
	return out
}
