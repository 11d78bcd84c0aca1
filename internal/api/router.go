package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/dream-slot/internal/database"
	"github.com/wfunc/dream-slot/internal/middleware"
	"github.com/wfunc/dream-slot/internal/service"
	ws "github.com/wfunc/dream-slot/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultWebSocketPath 默认推送路径
const DefaultWebSocketPath = "/ws/spins"

// Router API路由器
type Router struct {
	engine      *gin.Engine
	db          *gorm.DB // 未启用数据库时为nil
	slotHandler *SlotHandler
	wsHandler   *WebSocketHandler
	log         *zap.Logger
}

// NewRouter 创建路由器，hub 为nil时不注册推送路由
func NewRouter(slotService service.SlotService, hub *ws.Hub, db *gorm.DB, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	router := &Router{
		engine:      engine,
		db:          db,
		slotHandler: NewSlotHandler(slotService, log),
		log:         log,
	}
	if hub != nil {
		router.wsHandler = NewWebSocketHandler(hub, log.Named("websocket"))
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		slot := v1.Group("/slot")
		{
			slot.GET("/config", r.slotHandler.GetConfig)
			slot.GET("/paytable", r.slotHandler.GetPayTable)
			slot.POST("/spin", r.slotHandler.Spin)
			slot.POST("/simulate", r.slotHandler.Simulate)
			slot.GET("/history", r.slotHandler.GetHistory)
			slot.GET("/history/:round_id", r.slotHandler.GetRound)
			slot.GET("/history/:round_id/replay", r.slotHandler.Replay)
			slot.GET("/stats", r.slotHandler.GetStats)
		}

		if r.wsHandler != nil {
			v1.GET("/ws/online", r.wsHandler.GetOnlineCount)
		}
	}

	// WebSocket路由
	if r.wsHandler != nil {
		path := r.wsHandler.hub.Config().Path
		if path == "" {
			path = DefaultWebSocketPath
		}
		r.engine.GET(path, r.wsHandler.ServeWS)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":     "healthy",
		"message":    "服务运行正常",
		"machine_id": r.slotHandler.slotService.Config().MachineID,
	}

	if r.db != nil {
		if !database.IsConnected(r.db) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "数据库ping失败",
			})
			return
		}
		status["database"] = "connected"
	} else {
		status["database"] = "disabled"
	}

	if r.wsHandler != nil {
		status["online"] = r.wsHandler.hub.GetOnlineCount()
	}

	c.JSON(http.StatusOK, status)
}

// Handler 获取HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
