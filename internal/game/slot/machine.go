package slot

// SlotMachine 老虎机
//
// 持有只读配置与赔率表，每次 Spin 只依赖配置和随机数，不保留跨旋转状态。
// 使用并发安全的随机源（默认加密随机源）时可被多个 goroutine 同时调用。
type SlotMachine struct {
	config    *MachineConfig
	generator *ScreenGenerator
	evaluator *PayoutEvaluator
	reporter  Reporter
}

// Option 老虎机选项
type Option func(*options)

type options struct {
	rng      RandomGenerator
	reporter Reporter
}

// WithRandom 指定随机源
func WithRandom(rng RandomGenerator) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithReporter 指定观察者
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// NewSlotMachine 创建老虎机
func NewSlotMachine(config *MachineConfig, opts ...Option) (*SlotMachine, error) {
	// 验证配置
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.reporter == nil {
		o.reporter = NopReporter{}
	}

	// 持有副本，调用方后续修改不影响机器
	cfg := config.Clone()

	generator, err := NewScreenGenerator(cfg.Reels, cfg.RowsCount, o.rng)
	if err != nil {
		return nil, err
	}
	evaluator, err := NewPayoutEvaluator(cfg.Symbols, cfg.Lines, cfg.RowsCount, len(cfg.Reels))
	if err != nil {
		return nil, err
	}

	return &SlotMachine{
		config:    cfg,
		generator: generator,
		evaluator: evaluator,
		reporter:  o.reporter,
	}, nil
}

// Spin 执行一次旋转
func (m *SlotMachine) Spin() (*SpinResult, error) {
	screen, starts := m.generator.Generate()
	return m.settle(screen, starts)
}

// Replay 按记录的起始位置重新计算一次旋转
func (m *SlotMachine) Replay(startPositions []int) (*SpinResult, error) {
	screen, err := m.generator.GenerateAt(startPositions)
	if err != nil {
		return nil, err
	}
	return m.settle(screen, append([]int(nil), startPositions...))
}

func (m *SlotMachine) settle(screen Screen, starts []int) (*SpinResult, error) {
	m.reporter.ReelsStopped(starts)

	lineResults, err := m.evaluator.Evaluate(screen)
	if err != nil {
		return nil, err
	}

	var totalWin int64
	for _, lr := range lineResults {
		totalWin += lr.Payout
	}

	result := &SpinResult{
		Screen:         screen,
		StartPositions: starts,
		LineResults:    lineResults,
		TotalWin:       totalWin,
	}
	m.reporter.SpinCompleted(result)
	return result, nil
}

// Fork 创建共享配置和赔率表、使用独立随机源的老虎机
func (m *SlotMachine) Fork(rng RandomGenerator) *SlotMachine {
	return &SlotMachine{
		config:    m.config,
		generator: m.generator.withRandom(rng),
		evaluator: m.evaluator,
		reporter:  m.reporter,
	}
}

// Silent 返回不输出逐次旋转信息的副本，随机源与原机器共享
func (m *SlotMachine) Silent() *SlotMachine {
	c := *m
	c.reporter = NopReporter{}
	return &c
}

// Config 获取配置副本
func (m *SlotMachine) Config() *MachineConfig {
	return m.config.Clone()
}

// PayTable 获取赔率表条目
func (m *SlotMachine) PayTable() []PayTableEntry {
	return m.evaluator.Table().Entries()
}
