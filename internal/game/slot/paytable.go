package slot

import (
	"sort"

	apperrors "github.com/wfunc/dream-slot/internal/errors"
)

// payKey 赔率表键：符号 + 连续个数
type payKey struct {
	symbol SymbolID
	count  int
}

// PayoutTable 稀疏赔率表，创建后只读，可在多个 goroutine 间共享
type PayoutTable struct {
	entries map[payKey]int64
}

// NewPayoutTable 根据符号赔付序列构建赔率表
//
// 对每个符号，count 从 MinMatchCount 到序列长度，取 payouts[count-1]。
// 序列长度不足3的符号不产生任何条目。
func NewPayoutTable(symbols map[SymbolID][]int64) (*PayoutTable, error) {
	t := &PayoutTable{entries: make(map[payKey]int64)}
	for symbol, payouts := range symbols {
		if symbol < 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfiguration, "符号ID %d 不能为负数", symbol)
		}
		for i, amount := range payouts {
			if amount < 0 {
				return nil, apperrors.Newf(apperrors.ErrInvalidConfiguration,
					"符号 %d 第 %d 个赔付 %d 不能为负数", symbol, i+1, amount)
			}
		}
		for count := MinMatchCount; count <= len(payouts); count++ {
			t.entries[payKey{symbol: symbol, count: count}] = payouts[count-1]
		}
	}
	return t, nil
}

// Lookup 查找赔付，ok 表示条目存在
func (t *PayoutTable) Lookup(symbol SymbolID, count int) (int64, bool) {
	amount, ok := t.entries[payKey{symbol: symbol, count: count}]
	return amount, ok
}

// Payout 查找赔付，不存在时返回0
func (t *PayoutTable) Payout(symbol SymbolID, count int) int64 {
	return t.entries[payKey{symbol: symbol, count: count}]
}

// Len 条目数量
func (t *PayoutTable) Len() int {
	return len(t.entries)
}

// Entries 返回按符号、个数排序的全部条目
func (t *PayoutTable) Entries() []PayTableEntry {
	out := make([]PayTableEntry, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, PayTableEntry{Symbol: k.symbol, Count: k.count, Payout: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Count < out[j].Count
	})
	return out
}
