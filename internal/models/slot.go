package models

import (
	"time"
)

// SlotMachine 老虎机配置表
type SlotMachine struct {
	BaseModel
	MachineID  string     `gorm:"uniqueIndex;size:50;not null" json:"machine_id"`
	Name       string     `gorm:"size:100" json:"name"`
	Reels      int        `json:"reels"`
	Rows       int        `json:"rows"`
	Paylines   int        `json:"paylines"`
	Config     string     `gorm:"type:text" json:"-"` // 完整机器配置（JSON）
	Status     string     `gorm:"size:20;default:'active'" json:"status"`
	TotalSpins int64      `gorm:"default:0" json:"total_spins"`
	LastSpinAt *time.Time `json:"last_spin_at,omitempty"`
}

// SlotSpin 老虎机旋转记录表
type SlotSpin struct {
	BaseModel
	RoundID      string  `gorm:"uniqueIndex;size:64;not null" json:"round_id"`
	MachineID    string  `gorm:"size:50;not null;index" json:"machine_id"`
	Source       string  `gorm:"size:20;default:'play'" json:"source"` // play, simulation
	ReelStops    []int   `gorm:"serializer:json;type:text" json:"reel_stops"`
	Screen       [][]int `gorm:"serializer:json;type:text" json:"screen"`
	TotalWin     int64   `gorm:"default:0;index" json:"total_win"`
	WinningLines int     `gorm:"default:0" json:"winning_lines"`

	// 关联
	Lines []SlotWinLine `gorm:"foreignKey:SpinID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// SlotWinLine 老虎机支付线结果表
type SlotWinLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SpinID     uint      `gorm:"not null;index" json:"spin_id"`
	LineNumber int       `json:"line_number"` // 从1开始
	Symbols    []int     `gorm:"serializer:json;type:text" json:"symbols"`
	Symbol     int       `json:"symbol"`
	Count      int       `json:"count"`
	Payout     int64     `json:"payout"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsWin 是否中奖
func (s *SlotSpin) IsWin() bool {
	return s.TotalWin > 0
}
