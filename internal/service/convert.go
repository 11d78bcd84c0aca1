package service

import (
	"slices"
	"time"

	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/models"
)

// newSpinRecord 由旋转结果构造记录
func newSpinRecord(roundID, machineID, source string, result *slot.SpinResult) *SpinRecord {
	lines := make([]LineRecord, len(result.LineResults))
	for i, lr := range result.LineResults {
		lines[i] = LineRecord{
			LineNumber: i + 1,
			Symbols:    slot.SymbolsToInts(lr.Line),
			Count:      lr.Count,
			Payout:     lr.Payout,
		}
	}

	return &SpinRecord{
		RoundID:        roundID,
		MachineID:      machineID,
		Source:         source,
		StartPositions: append([]int(nil), result.StartPositions...),
		Screen:         result.Screen.ToInts(),
		Lines:          lines,
		TotalWin:       result.TotalWin,
		WinningLines:   result.WinningLines(),
		CreatedAt:      time.Now(),
	}
}

// toModel 转换为数据库模型
func (r *SpinRecord) toModel() *models.SlotSpin {
	spin := &models.SlotSpin{
		RoundID:      r.RoundID,
		MachineID:    r.MachineID,
		Source:       r.Source,
		ReelStops:    r.StartPositions,
		Screen:       r.Screen,
		TotalWin:     r.TotalWin,
		WinningLines: r.WinningLines,
		Lines:        make([]models.SlotWinLine, len(r.Lines)),
	}
	spin.CreatedAt = r.CreatedAt

	for i, l := range r.Lines {
		var symbol int
		if len(l.Symbols) > 0 {
			symbol = l.Symbols[0]
		}
		spin.Lines[i] = models.SlotWinLine{
			LineNumber: l.LineNumber,
			Symbols:    l.Symbols,
			Symbol:     symbol,
			Count:      l.Count,
			Payout:     l.Payout,
		}
	}
	return spin
}

// fromModel 由数据库模型还原记录
func fromModel(spin *models.SlotSpin) *SpinRecord {
	lines := make([]LineRecord, len(spin.Lines))
	for i, l := range spin.Lines {
		lines[i] = LineRecord{
			LineNumber: l.LineNumber,
			Symbols:    l.Symbols,
			Count:      l.Count,
			Payout:     l.Payout,
		}
	}

	return &SpinRecord{
		RoundID:        spin.RoundID,
		MachineID:      spin.MachineID,
		Source:         spin.Source,
		StartPositions: spin.ReelStops,
		Screen:         spin.Screen,
		Lines:          lines,
		TotalWin:       spin.TotalWin,
		WinningLines:   spin.WinningLines,
		CreatedAt:      spin.CreatedAt,
	}
}

// sameOutcome 比较两次结果的盘面与赔付
func sameOutcome(a, b *SpinRecord) bool {
	if a.TotalWin != b.TotalWin || len(a.Lines) != len(b.Lines) || len(a.Screen) != len(b.Screen) {
		return false
	}
	for i := range a.Screen {
		if !slices.Equal(a.Screen[i], b.Screen[i]) {
			return false
		}
	}
	for i := range a.Lines {
		la, lb := a.Lines[i], b.Lines[i]
		if la.LineNumber != lb.LineNumber || la.Count != lb.Count || la.Payout != lb.Payout || !slices.Equal(la.Symbols, lb.Symbols) {
			return false
		}
	}
	return true
}
