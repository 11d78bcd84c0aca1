package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotMachineRepository 老虎机配置仓储接口
type SlotMachineRepository interface {
	BaseRepository
	Upsert(ctx context.Context, machine *models.SlotMachine) error
	FindByMachineID(ctx context.Context, machineID string) (*models.SlotMachine, error)
	List(ctx context.Context) ([]*models.SlotMachine, error)
	IncrementSpins(ctx context.Context, machineID string, n int64) error
}

// slotMachineRepo 老虎机配置仓储实现
type slotMachineRepo struct {
	*BaseRepo
}

// NewSlotMachineRepository 创建老虎机配置仓储
func NewSlotMachineRepository(db *gorm.DB) SlotMachineRepository {
	return &slotMachineRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Upsert 按 machine_id 创建或更新配置
func (r *slotMachineRepo) Upsert(ctx context.Context, machine *models.SlotMachine) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "machine_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "reels", "rows", "paylines", "config", "updated_at"}),
	}).Create(machine).Error
	return translate(err, apperrors.ErrDatabaseInsert, "保存机器配置失败")
}

// FindByMachineID 根据机器ID查找
func (r *slotMachineRepo) FindByMachineID(ctx context.Context, machineID string) (*models.SlotMachine, error) {
	var machine models.SlotMachine
	err := r.db.WithContext(ctx).Where("machine_id = ?", machineID).First(&machine).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrDatabaseQuery, "老虎机不存在: "+machineID)
	}
	return &machine, nil
}

// List 获取全部机器
func (r *slotMachineRepo) List(ctx context.Context) ([]*models.SlotMachine, error) {
	var machines []*models.SlotMachine
	err := r.db.WithContext(ctx).Order("id ASC").Find(&machines).Error
	return machines, translate(err, apperrors.ErrDatabaseQuery, "查询机器失败")
}

// IncrementSpins 累加旋转次数并更新最后旋转时间
func (r *slotMachineRepo) IncrementSpins(ctx context.Context, machineID string, n int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.SlotMachine{}).
		Where("machine_id = ?", machineID).
		Updates(map[string]interface{}{
			"last_spin_at": time.Now(),
			"total_spins":  gorm.Expr("total_spins + ?", n),
		}).Error
	return translate(err, apperrors.ErrDatabaseQuery, "更新旋转次数失败")
}

// SlotSpinRepository 老虎机旋转记录仓储接口
type SlotSpinRepository interface {
	BaseRepository
	Create(ctx context.Context, spin *models.SlotSpin) error
	BatchCreate(ctx context.Context, spins []*models.SlotSpin) error
	FindByRoundID(ctx context.Context, roundID string) (*models.SlotSpin, error)
	List(ctx context.Context, filter SpinFilter, pagination *Pagination) ([]*models.SlotSpin, error)
	GetStatistics(ctx context.Context, filter SpinFilter) (*SpinStatistics, error)
}

// SpinFilter 旋转记录查询条件
type SpinFilter struct {
	MachineID string    `form:"machine_id"`
	Source    string    `form:"source"`
	OnlyWins  bool      `form:"only_wins"`
	Start     time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End       time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (f SpinFilter) apply(db *gorm.DB) *gorm.DB {
	if f.MachineID != "" {
		db = db.Where("machine_id = ?", f.MachineID)
	}
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	if f.OnlyWins {
		db = db.Where("total_win > 0")
	}
	if !f.Start.IsZero() {
		db = db.Where("created_at >= ?", f.Start)
	}
	if !f.End.IsZero() {
		db = db.Where("created_at <= ?", f.End)
	}
	return db
}

// SpinStatistics 旋转统计
type SpinStatistics struct {
	TotalSpins   int64   `json:"total_spins"`
	WinningSpins int64   `json:"winning_spins"`
	TotalWin     int64   `json:"total_win"`
	MaxWin       int64   `json:"max_win"`
	AverageWin   float64 `json:"average_win"`
	HitRate      float64 `json:"hit_rate"` // 中奖旋转占比
}

// slotSpinRepo 老虎机旋转记录仓储实现
type slotSpinRepo struct {
	*BaseRepo
	batchSize int
}

// NewSlotSpinRepository 创建老虎机旋转记录仓储
func NewSlotSpinRepository(db *gorm.DB) SlotSpinRepository {
	return &slotSpinRepo{
		BaseRepo:  NewBaseRepo(db),
		batchSize: 100,
	}
}

// Create 创建旋转记录（包含支付线）
func (r *slotSpinRepo) Create(ctx context.Context, spin *models.SlotSpin) error {
	err := r.db.WithContext(ctx).Create(spin).Error
	return translate(err, apperrors.ErrDatabaseInsert, "保存旋转记录失败")
}

// BatchCreate 批量创建旋转记录
func (r *slotSpinRepo) BatchCreate(ctx context.Context, spins []*models.SlotSpin) error {
	if len(spins) == 0 {
		return nil
	}
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(spins, r.batchSize).Error
	})
	return translate(err, apperrors.ErrDatabaseInsert, "批量保存旋转记录失败")
}

// FindByRoundID 根据回合ID查找
func (r *slotSpinRepo) FindByRoundID(ctx context.Context, roundID string) (*models.SlotSpin, error) {
	var spin models.SlotSpin
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("round_id = ?", roundID).
		First(&spin).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrDatabaseQuery, "旋转记录不存在: "+roundID)
	}
	return &spin, nil
}

// List 分页查询旋转记录（不含支付线）
func (r *slotSpinRepo) List(ctx context.Context, filter SpinFilter, pagination *Pagination) ([]*models.SlotSpin, error) {
	var spins []*models.SlotSpin
	query := func() *gorm.DB {
		return filter.apply(r.db.WithContext(ctx).Model(&models.SlotSpin{}))
	}

	// 获取总数
	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, translate(err, apperrors.ErrDatabaseQuery, "统计旋转记录失败")
	}
	pagination.Total = total

	// 分页查询
	err := query().
		Scopes(Paginate(pagination)).
		Order("id DESC").
		Find(&spins).Error

	return spins, translate(err, apperrors.ErrDatabaseQuery, "查询旋转记录失败")
}

// GetStatistics 获取统计数据
func (r *slotSpinRepo) GetStatistics(ctx context.Context, filter SpinFilter) (*SpinStatistics, error) {
	var result struct {
		TotalSpins   int64
		WinningSpins int64
		TotalWin     int64
		MaxWin       int64
	}

	err := filter.apply(r.db.WithContext(ctx).Model(&models.SlotSpin{})).
		Select(`
		COUNT(*) as total_spins,
		COALESCE(SUM(CASE WHEN total_win > 0 THEN 1 ELSE 0 END), 0) as winning_spins,
		COALESCE(SUM(total_win), 0) as total_win,
		COALESCE(MAX(total_win), 0) as max_win
	`).Scan(&result).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrDatabaseQuery, "统计旋转记录失败")
	}

	stats := &SpinStatistics{
		TotalSpins:   result.TotalSpins,
		WinningSpins: result.WinningSpins,
		TotalWin:     result.TotalWin,
		MaxWin:       result.MaxWin,
	}
	if stats.TotalSpins > 0 {
		stats.AverageWin = float64(stats.TotalWin) / float64(stats.TotalSpins)
		stats.HitRate = float64(stats.WinningSpins) / float64(stats.TotalSpins)
	}

	return stats, nil
}
