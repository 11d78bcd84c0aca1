package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/dream-slot/internal/api"
	"github.com/wfunc/dream-slot/internal/config"
	"github.com/wfunc/dream-slot/internal/database"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/reporter"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/logger"
	"github.com/wfunc/dream-slot/internal/repository"
	"github.com/wfunc/dream-slot/internal/service"
	"github.com/wfunc/dream-slot/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db         *gorm.DB
	hub        *websocket.Hub
	httpServer *http.Server

	// 关闭控制
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动老虎机服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("machine_id", s.cfg.Machine.MachineID))

	if s.cfg.Database.Enabled {
		if err := database.Init(&s.cfg.Database); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
		}
		s.db = database.GetDB()
	}

	machine, err := slot.NewSlotMachine(&s.cfg.Machine,
		slot.WithReporter(reporter.NewLogReporter(logger.WithModule("game"), false)))
	if err != nil {
		return err
	}

	// 推送中心
	s.hub = websocket.NewHub(s.cfg.WebSocket, logger.WithModule("websocket"))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	deps := service.Deps{
		Machine:   machine,
		Publisher: s.hub,
		Logger:    logger.WithModule("game"),
	}
	if s.db != nil {
		deps.SpinRepo = repository.NewSlotSpinRepository(s.db)
		deps.MachineRepo = repository.NewSlotMachineRepository(s.db)
	}
	slotService := service.NewSlotService(deps)
	if err := slotService.RegisterMachine(s.ctx); err != nil {
		return err
	}

	gin.SetMode(s.cfg.Server.Mode)
	router := api.NewRouter(slotService, s.hub, s.db, logger.WithModule("api"))
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.cancel()
		}
	}()

	// 监听配置变化
	config.Watch(logger.WithModule("config"), func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
		zap.Bool("database", s.db != nil))
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 取消主上下文，Hub 随之关闭全部连接
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}
	return nil
}

// reloadConfig 重新加载配置，只有日志级别可热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("日志级别已更新", zap.String("level", newCfg.Log.Level))
	}
	if newCfg.Machine.MachineID != s.cfg.Machine.MachineID {
		s.logger.Warn("机器配置变更需要重启后生效",
			zap.String("current", s.cfg.Machine.MachineID),
			zap.String("new", newCfg.Machine.MachineID))
	}
	s.cfg.Log = newCfg.Log
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Dream Slot 服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
