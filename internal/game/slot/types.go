package slot

// SymbolID 符号ID（非负整数）
type SymbolID int

// MinMatchCount 最小中奖连线数
const MinMatchCount = 3

// Reel 卷轴条，首尾相连的符号序列
type Reel []SymbolID

// ReelSet 卷轴组，卷轴数决定盘面宽度
type ReelSet []Reel

// Payline 支付线，每个卷轴取一个行索引
type Payline []int

// Screen 盘面，行优先：Screen[row][reel]
type Screen [][]SymbolID

// Rows 盘面行数
func (s Screen) Rows() int {
	return len(s)
}

// Columns 盘面列数（卷轴数）
func (s Screen) Columns() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// ToInts 转换为整数二维数组（用于持久化）
func (s Screen) ToInts() [][]int {
	out := make([][]int, len(s))
	for i, row := range s {
		out[i] = SymbolsToInts(row)
	}
	return out
}

// MachineConfig 老虎机配置
type MachineConfig struct {
	MachineID string               `mapstructure:"machine_id" json:"machine_id"` // 机器ID
	Name      string               `mapstructure:"name" json:"name"`             // 名称
	Reels     ReelSet              `mapstructure:"reels" json:"reels"`           // 卷轴条
	RowsCount int                  `mapstructure:"rows_count" json:"rows_count"` // 行数
	Lines     []Payline            `mapstructure:"lines" json:"lines"`           // 支付线
	Symbols   map[SymbolID][]int64 `mapstructure:"symbols" json:"symbols"`       // 符号赔付序列
}

// Clone 深拷贝配置
func (c *MachineConfig) Clone() *MachineConfig {
	if c == nil {
		return nil
	}
	out := &MachineConfig{
		MachineID: c.MachineID,
		Name:      c.Name,
		RowsCount: c.RowsCount,
	}
	if c.Reels != nil {
		out.Reels = make(ReelSet, len(c.Reels))
		for i, reel := range c.Reels {
			out.Reels[i] = append(Reel(nil), reel...)
		}
	}
	if c.Lines != nil {
		out.Lines = make([]Payline, len(c.Lines))
		for i, line := range c.Lines {
			out.Lines[i] = append(Payline(nil), line...)
		}
	}
	if c.Symbols != nil {
		out.Symbols = make(map[SymbolID][]int64, len(c.Symbols))
		for symbol, payouts := range c.Symbols {
			out.Symbols[symbol] = append([]int64(nil), payouts...)
		}
	}
	return out
}

// LineResult 单条支付线结果
type LineResult struct {
	Line   []SymbolID `json:"line"`   // 线上符号
	Count  int        `json:"count"`  // 从第一个卷轴起的连续个数
	Payout int64      `json:"payout"` // 赔付
}

// SpinResult 旋转结果
type SpinResult struct {
	Screen         Screen       `json:"screen"`          // 盘面
	StartPositions []int        `json:"start_positions"` // 各卷轴停止位置
	LineResults    []LineResult `json:"line_results"`    // 按支付线顺序的结果
	TotalWin       int64        `json:"total_win"`       // 总赢取
}

// WinningLines 有赔付的支付线数量
func (r *SpinResult) WinningLines() int {
	n := 0
	for _, lr := range r.LineResults {
		if lr.Payout > 0 {
			n++
		}
	}
	return n
}

// PayTableEntry 赔率表条目
type PayTableEntry struct {
	Symbol SymbolID `json:"symbol"` // 符号
	Count  int      `json:"count"`  // 连续个数
	Payout int64    `json:"payout"` // 赔付
}

// SymbolsToInts 将符号序列转换为整数序列
func SymbolsToInts(symbols []SymbolID) []int {
	out := make([]int, len(symbols))
	for i, s := range symbols {
		out[i] = int(s)
	}
	return out
}
