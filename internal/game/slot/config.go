package slot

import (
	apperrors "github.com/wfunc/dream-slot/internal/errors"
)

// 符号定义（Dream Slot）
const (
	SymbolCherry  SymbolID = 1 // 樱桃
	SymbolLemon   SymbolID = 2 // 柠檬
	SymbolOrange  SymbolID = 3 // 橙子
	SymbolPlum    SymbolID = 4 // 李子
	SymbolGrape   SymbolID = 5 // 葡萄
	SymbolMelon   SymbolID = 6 // 西瓜
	SymbolSeven   SymbolID = 7 // 7
	SymbolBar     SymbolID = 8 // BAR
	SymbolDiamond SymbolID = 9 // 钻石
)

// GetDefaultConfig 获取默认配置（Dream Slot，5卷轴3行10线）
func GetDefaultConfig() *MachineConfig {
	return &MachineConfig{
		MachineID: "dream_slot",
		Name:      "Dream Slot",
		RowsCount: 3,
		Reels: ReelSet{
			{1, 2, 3, 4, 5, 1, 6, 2, 7, 3, 8, 1, 4, 2, 9, 5, 3, 1, 6, 2},
			{2, 1, 4, 3, 1, 5, 2, 6, 1, 7, 3, 2, 8, 4, 1, 9, 5, 2, 3, 6},
			{3, 1, 2, 5, 4, 1, 2, 6, 3, 1, 7, 2, 4, 8, 1, 5, 9, 2, 3, 1},
			{4, 2, 1, 3, 6, 2, 1, 5, 3, 7, 1, 2, 4, 1, 8, 3, 2, 9, 5, 1},
			{5, 1, 3, 2, 1, 4, 6, 1, 2, 3, 7, 1, 5, 2, 8, 1, 4, 3, 9, 2},
		},
		Lines: []Payline{
			{1, 1, 1, 1, 1}, // 中线
			{0, 0, 0, 0, 0}, // 上线
			{2, 2, 2, 2, 2}, // 下线
			{0, 1, 2, 1, 0}, // V型
			{2, 1, 0, 1, 2}, // 倒V型
			{0, 0, 1, 2, 2},
			{2, 2, 1, 0, 0},
			{1, 0, 0, 0, 1},
			{1, 2, 2, 2, 1},
			{0, 1, 0, 1, 0}, // 之字形
		},
		// 下标 count-1 为 count 连的赔付，前两位不参与计算
		Symbols: map[SymbolID][]int64{
			SymbolCherry:  {0, 0, 5, 10, 20},
			SymbolLemon:   {0, 0, 5, 10, 25},
			SymbolOrange:  {0, 0, 10, 20, 40},
			SymbolPlum:    {0, 0, 10, 25, 50},
			SymbolGrape:   {0, 0, 15, 30, 75},
			SymbolMelon:   {0, 0, 20, 50, 100},
			SymbolSeven:   {0, 0, 50, 150, 500},
			SymbolBar:     {0, 0, 30, 80, 200},
			SymbolDiamond: {0, 0, 100, 300, 1000},
		},
	}
}

// GetClassicThreeReelConfig 获取经典三卷轴配置（3卷轴3行5线）
func GetClassicThreeReelConfig() *MachineConfig {
	return &MachineConfig{
		MachineID: "classic_three",
		Name:      "经典三卷轴",
		RowsCount: 3,
		Reels: ReelSet{
			{1, 2, 3, 7, 1, 2, 8, 3, 1, 2},
			{2, 1, 3, 1, 7, 2, 3, 8, 1, 2},
			{3, 2, 1, 8, 2, 1, 7, 1, 3, 2},
		},
		Lines: []Payline{
			{1, 1, 1},
			{0, 0, 0},
			{2, 2, 2},
			{0, 1, 2},
			{2, 1, 0},
		},
		Symbols: map[SymbolID][]int64{
			SymbolCherry: {0, 0, 10},
			SymbolLemon:  {0, 0, 15},
			SymbolOrange: {0, 0, 20},
			SymbolSeven:  {0, 0, 200},
			SymbolBar:    {0, 0, 80},
		},
	}
}

// ConfigPresets 预设配置集合
var ConfigPresets = map[string]func() *MachineConfig{
	"dream_slot":    GetDefaultConfig,
	"classic_three": GetClassicThreeReelConfig,
}

// GetConfigByID 根据ID获取配置，未知ID返回默认配置
func GetConfigByID(machineID string) *MachineConfig {
	if preset, exists := ConfigPresets[machineID]; exists {
		return preset()
	}
	return GetDefaultConfig()
}

// ValidateConfig 验证配置
func ValidateConfig(config *MachineConfig) error {
	if config == nil {
		return apperrors.New(apperrors.ErrInvalidConfiguration, "配置为空")
	}
	if err := validateReels(config.Reels, config.RowsCount); err != nil {
		return err
	}
	if err := validateLines(config.Lines, config.RowsCount, len(config.Reels)); err != nil {
		return err
	}
	for symbol, payouts := range config.Symbols {
		if symbol < 0 {
			return apperrors.Newf(apperrors.ErrInvalidConfiguration, "符号ID %d 不能为负数", symbol)
		}
		for i, amount := range payouts {
			if amount < 0 {
				return apperrors.Newf(apperrors.ErrInvalidConfiguration,
					"符号 %d 第 %d 个赔付 %d 不能为负数", symbol, i+1, amount)
			}
		}
	}
	return nil
}

func validateReels(reels ReelSet, rowsCount int) error {
	if rowsCount <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfiguration, "行数 %d 必须大于0", rowsCount)
	}
	if len(reels) == 0 {
		return apperrors.New(apperrors.ErrInvalidConfiguration, "至少需要一个卷轴")
	}
	for r, reel := range reels {
		if len(reel) == 0 {
			return apperrors.Newf(apperrors.ErrInvalidConfiguration, "卷轴 %d 长度为0", r)
		}
		for pos, symbol := range reel {
			if symbol < 0 {
				return apperrors.Newf(apperrors.ErrInvalidConfiguration,
					"卷轴 %d 位置 %d 的符号 %d 不能为负数", r, pos, symbol)
			}
		}
	}
	return nil
}

func validateLines(lines []Payline, rowsCount, reelCount int) error {
	for i, line := range lines {
		if len(line) != reelCount {
			return apperrors.Newf(apperrors.ErrInvalidConfiguration,
				"支付线 %d 长度 %d 与卷轴数 %d 不一致", i, len(line), reelCount)
		}
		for reel, row := range line {
			if row < 0 || row >= rowsCount {
				return apperrors.Newf(apperrors.ErrInvalidConfiguration,
					"支付线 %d 在卷轴 %d 的行索引 %d 越界 [0,%d)", i, reel, row, rowsCount)
			}
		}
	}
	return nil
}
