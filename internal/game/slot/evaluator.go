package slot

import (
	apperrors "github.com/wfunc/dream-slot/internal/errors"
)

// PayoutEvaluator 支付线计算器
type PayoutEvaluator struct {
	table     *PayoutTable
	lines     []Payline
	rowsCount int
	reelCount int
}

// NewPayoutEvaluator 创建计算器，构建赔率表并校验支付线
func NewPayoutEvaluator(symbols map[SymbolID][]int64, lines []Payline, rowsCount, reelCount int) (*PayoutEvaluator, error) {
	if err := validateLines(lines, rowsCount, reelCount); err != nil {
		return nil, err
	}
	table, err := NewPayoutTable(symbols)
	if err != nil {
		return nil, err
	}
	return &PayoutEvaluator{
		table:     table,
		lines:     lines,
		rowsCount: rowsCount,
		reelCount: reelCount,
	}, nil
}

// Evaluate 计算盘面上每条支付线的结果，按支付线顺序返回
func (e *PayoutEvaluator) Evaluate(screen Screen) ([]LineResult, error) {
	if screen.Rows() != e.rowsCount || screen.Columns() != e.reelCount {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfiguration,
			"盘面尺寸 %dx%d 与配置 %dx%d 不一致", screen.Rows(), screen.Columns(), e.rowsCount, e.reelCount)
	}
	for row, cells := range screen {
		if len(cells) != e.reelCount {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfiguration,
				"盘面第 %d 行有 %d 列，应为 %d 列", row+1, len(cells), e.reelCount)
		}
	}

	results := make([]LineResult, len(e.lines))
	for i, line := range e.lines {
		symbols := make([]SymbolID, len(line))
		for reel, row := range line {
			symbols[reel] = screen[row][reel]
		}
		count, payout := e.CalculatePayout(symbols)
		results[i] = LineResult{
			Line:   symbols,
			Count:  count,
			Payout: payout,
		}
	}
	return results, nil
}

// CalculatePayout 计算一条线上的赔付
//
// 只统计从第一个卷轴开始、与首个符号相同的连续个数，遇到不同符号即停止；
// 赔付取该个数的精确条目，不存在则为0。
func (e *PayoutEvaluator) CalculatePayout(symbols []SymbolID) (int, int64) {
	if len(symbols) == 0 {
		return 0, 0
	}
	first := symbols[0]
	count := 1
	for _, s := range symbols[1:] {
		if s != first {
			break
		}
		count++
	}
	return count, e.table.Payout(first, count)
}

// Table 赔率表
func (e *PayoutEvaluator) Table() *PayoutTable {
	return e.table
}

// LineCount 支付线数量
func (e *PayoutEvaluator) LineCount() int {
	return len(e.lines)
}
