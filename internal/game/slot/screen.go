package slot

import (
	apperrors "github.com/wfunc/dream-slot/internal/errors"
)

// ScreenGenerator 盘面生成器
//
// 每个卷轴独立随机一个起始位置，然后按首尾相连的方式向下取 RowsCount 个符号，
// 模拟实体卷轴停止在随机位置。生成器创建后只读，是否可并发使用取决于随机源。
type ScreenGenerator struct {
	reels     ReelSet
	rowsCount int
	rng       RandomGenerator
}

// NewScreenGenerator 创建盘面生成器，rng 为空时使用加密随机源
func NewScreenGenerator(reels ReelSet, rowsCount int, rng RandomGenerator) (*ScreenGenerator, error) {
	if err := validateReels(reels, rowsCount); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewCryptoRandomGenerator()
	}
	return &ScreenGenerator{
		reels:     reels,
		rowsCount: rowsCount,
		rng:       rng,
	}, nil
}

// Generate 生成一个随机盘面，同时返回各卷轴的起始位置
func (g *ScreenGenerator) Generate() (Screen, []int) {
	starts := make([]int, len(g.reels))
	for r, reel := range g.reels {
		starts[r] = g.rng.Intn(len(reel))
	}
	return g.project(starts), starts
}

// GenerateAt 按给定的起始位置生成盘面（用于回放）
func (g *ScreenGenerator) GenerateAt(startPositions []int) (Screen, error) {
	if len(startPositions) != len(g.reels) {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam,
			"起始位置数量 %d 与卷轴数 %d 不一致", len(startPositions), len(g.reels))
	}
	for r, s := range startPositions {
		if s < 0 || s >= len(g.reels[r]) {
			return nil, apperrors.Newf(apperrors.ErrInvalidParam,
				"卷轴 %d 的起始位置 %d 越界 [0,%d)", r, s, len(g.reels[r]))
		}
	}
	return g.project(startPositions), nil
}

// Rows 行数
func (g *ScreenGenerator) Rows() int {
	return g.rowsCount
}

// Columns 卷轴数
func (g *ScreenGenerator) Columns() int {
	return len(g.reels)
}

// withRandom 返回共享卷轴配置、使用新随机源的生成器
func (g *ScreenGenerator) withRandom(rng RandomGenerator) *ScreenGenerator {
	if rng == nil {
		rng = NewCryptoRandomGenerator()
	}
	return &ScreenGenerator{
		reels:     g.reels,
		rowsCount: g.rowsCount,
		rng:       rng,
	}
}

func (g *ScreenGenerator) project(starts []int) Screen {
	screen := make(Screen, g.rowsCount)
	for i := 0; i < g.rowsCount; i++ {
		row := make([]SymbolID, len(g.reels))
		for r, reel := range g.reels {
			row[r] = reel[(starts[r]+i)%len(reel)]
		}
		screen[i] = row
	}
	return screen
}
