package database

import (
	"fmt"

	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/logger"
	"github.com/wfunc/dream-slot/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库未初始化")
	}

	// 获取迁移锁，避免多个进程同时迁移同一个 SQLite 文件
	if dbPath := sqlitePath(db); dbPath != "" {
		CleanupStaleLocks(dbPath)
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "获取迁移锁失败")
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "迁移 %T 失败", model)
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建查询用的组合索引
func createIndexes(db *gorm.DB) error {
	indexes := map[string]string{
		"idx_slot_spins_machine_created": "CREATE INDEX IF NOT EXISTS idx_slot_spins_machine_created ON slot_spins(machine_id, created_at)",
		"idx_slot_win_lines_spin_line":   "CREATE INDEX IF NOT EXISTS idx_slot_win_lines_spin_line ON slot_win_lines(spin_id, line_number)",
	}

	// MySQL 不支持 IF NOT EXISTS 语法，依赖 gorm 标签上的索引即可
	if db.Dialector.Name() == "mysql" {
		return nil
	}

	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
	return nil
}
