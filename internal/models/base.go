package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&SlotMachine{},
		&SlotSpin{},
		&SlotWinLine{},
	}
}
