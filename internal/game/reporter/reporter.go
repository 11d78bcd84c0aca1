package reporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wfunc/dream-slot/internal/game/slot"
	"go.uber.org/zap"
)

// LogReporter 将旋转过程输出到日志
type LogReporter struct {
	logger *zap.Logger
	// verbose 为 false 时只输出汇总，不逐行输出盘面
	verbose bool
}

// NewLogReporter 创建日志观察者
func NewLogReporter(logger *zap.Logger, verbose bool) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger, verbose: verbose}
}

// ReelsStopped 输出卷轴起始位置
func (r *LogReporter) ReelsStopped(startPositions []int) {
	if !r.verbose {
		return
	}
	r.logger.Info("----------Spin result----------")
	r.logger.Info("Reel start positions: "+joinInts(startPositions),
		zap.Ints("start_positions", startPositions),
	)
}

// SpinCompleted 输出盘面与每条支付线结果
func (r *LogReporter) SpinCompleted(result *slot.SpinResult) {
	if !r.verbose {
		r.logger.Debug("spin completed",
			zap.Ints("start_positions", result.StartPositions),
			zap.Int64("total_win", result.TotalWin),
		)
		return
	}

	for i, row := range result.Screen {
		r.logger.Info(fmt.Sprintf("Row %d: %s", i+1, joinSymbols(row)))
	}
	for i, lr := range result.LineResults {
		r.logger.Info(fmt.Sprintf("Line %d: %s | Payout: %d", i+1, joinSymbols(lr.Line), lr.Payout),
			zap.Int("line", i+1),
			zap.Int("count", lr.Count),
			zap.Int64("payout", lr.Payout),
		)
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func joinSymbols(symbols []slot.SymbolID) string {
	return joinInts(slot.SymbolsToInts(symbols))
}
