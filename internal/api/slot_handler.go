package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/middleware"
	"github.com/wfunc/dream-slot/internal/repository"
	"github.com/wfunc/dream-slot/internal/service"
	"go.uber.org/zap"
)

// retryAfterSeconds 可重试错误建议的重试间隔
const retryAfterSeconds = "1"

// SlotHandler 老虎机处理器
type SlotHandler struct {
	slotService service.SlotService
	logger      *zap.Logger
}

// NewSlotHandler 创建老虎机处理器
func NewSlotHandler(slotService service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{
		slotService: slotService,
		logger:      logger,
	}
}

// HistoryResponse 历史记录响应
type HistoryResponse struct {
	Records  []*service.SpinRecord `json:"records"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// GetConfig 获取机器配置
// @Summary 机器配置
// @Tags Slot
// @Produce json
// @Success 200 {object} slot.MachineConfig
// @Router /api/v1/slot/config [get]
func (h *SlotHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.slotService.Config())
}

// GetPayTable 获取赔率表
// @Summary 赔率表
// @Tags Slot
// @Produce json
// @Success 200 {array} slot.PayTableEntry
// @Router /api/v1/slot/paytable [get]
func (h *SlotHandler) GetPayTable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.slotService.PayTable()})
}

// Spin 执行一次旋转
// @Summary 单次旋转
// @Tags Slot
// @Produce json
// @Success 200 {object} service.SpinRecord
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/v1/slot/spin [post]
func (h *SlotHandler) Spin(c *gin.Context) {
	record, err := h.slotService.Spin(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Simulate 批量模拟
// @Summary 批量模拟
// @Description 请求体为空时使用默认的100次旋转
// @Tags Slot
// @Accept json
// @Produce json
// @Param request body service.SimulateRequest false "模拟参数"
// @Success 200 {object} simulator.Summary
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/slot/simulate [post]
func (h *SlotHandler) Simulate(c *gin.Context) {
	var req service.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, "参数错误"))
		return
	}

	summary, err := h.slotService.Simulate(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHistory 分页查询旋转记录
// @Summary 旋转记录
// @Tags Slot
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param machine_id query string false "机器ID"
// @Param source query string false "来源 play/simulation"
// @Param only_wins query bool false "只看中奖"
// @Success 200 {object} HistoryResponse
// @Router /api/v1/slot/history [get]
func (h *SlotHandler) GetHistory(c *gin.Context) {
	var query repository.Pagination
	var filter repository.SpinFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, "分页参数错误"))
		return
	}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, "查询参数错误"))
		return
	}

	pagination := repository.NewPagination(query.Page, query.PageSize)
	records, err := h.slotService.History(c.Request.Context(), filter, pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		Records:  records,
		Total:    pagination.Total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	})
}

// GetRound 查询单个回合
// @Summary 回合详情
// @Tags Slot
// @Produce json
// @Param round_id path string true "回合ID"
// @Success 200 {object} service.SpinRecord
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/slot/history/{round_id} [get]
func (h *SlotHandler) GetRound(c *gin.Context) {
	record, err := h.slotService.GetRound(c.Request.Context(), c.Param("round_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Replay 按记录的卷轴位置回放
// @Summary 回放回合
// @Tags Slot
// @Produce json
// @Param round_id path string true "回合ID"
// @Success 200 {object} service.ReplayResult
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/slot/history/{round_id}/replay [get]
func (h *SlotHandler) Replay(c *gin.Context) {
	result, err := h.slotService.Replay(c.Request.Context(), c.Param("round_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStats 旋转统计
// @Summary 旋转统计
// @Tags Slot
// @Produce json
// @Success 200 {object} repository.SpinStatistics
// @Router /api/v1/slot/stats [get]
func (h *SlotHandler) GetStats(c *gin.Context) {
	var filter repository.SpinFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, "查询参数错误"))
		return
	}

	stats, err := h.slotService.Statistics(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondError 按错误码输出统一错误响应
func (h *SlotHandler) respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr == nil {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.Int("code", int(appErr.Code)),
		zap.Error(err),
	}
	switch {
	case apperrors.IsCritical(appErr):
		h.logger.Error("请求处理失败(严重)", append(fields, zap.String("stack", appErr.GetStack()))...)
	case status >= http.StatusInternalServerError:
		h.logger.Error("请求处理失败", fields...)
	}
	if apperrors.IsRetryable(appErr) {
		c.Header("Retry-After", retryAfterSeconds)
	}

	// 调用栈只写日志，不返回给客户端
	body := *appErr
	body.Stack = nil
	c.JSON(status, apperrors.NewErrorResponse(&body, middleware.GetRequestID(c)))
}
