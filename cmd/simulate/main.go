package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wfunc/dream-slot/internal/config"
	"github.com/wfunc/dream-slot/internal/database"
	"github.com/wfunc/dream-slot/internal/game/reporter"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"github.com/wfunc/dream-slot/internal/logger"
	"github.com/wfunc/dream-slot/internal/repository"
	"github.com/wfunc/dream-slot/internal/service"
	"go.uber.org/zap"
)

func main() {
	// 命令行参数，未指定时使用配置文件中的 simulation 配置
	var (
		configPath = flag.String("config", "", "配置文件路径")
		spins      = flag.Int("spins", 0, "旋转次数")
		workers    = flag.Int("workers", 0, "并发数，大于1时不输出逐次盘面")
		seed       = flag.Uint64("seed", 0, "随机种子，0 表示加密随机源")
		record     = flag.Bool("record", false, "保存每次旋转到数据库")
		quiet      = flag.Bool("quiet", false, "不输出每次旋转的盘面")
	)
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()
	log := logger.WithModule("simulator")

	req := &service.SimulateRequest{
		Spins:   cfg.Simulation.Spins,
		Workers: cfg.Simulation.Workers,
		Seed:    cfg.Simulation.Seed,
		Record:  cfg.Simulation.Record || *record,
	}
	if *spins > 0 {
		req.Spins = *spins
	}
	if *workers > 0 {
		req.Workers = *workers
	}
	if *seed != 0 {
		req.Seed = *seed
	}
	verbose := cfg.Simulation.Verbose && !*quiet

	machine, err := slot.NewSlotMachine(&cfg.Machine,
		slot.WithReporter(reporter.NewLogReporter(logger.WithModule("game"), verbose)))
	if err != nil {
		log.Fatal("创建老虎机失败", zap.Error(err))
	}

	deps := service.Deps{Machine: machine, Logger: log}
	if req.Record {
		if !cfg.Database.Enabled {
			log.Fatal("保存旋转记录需要启用数据库")
		}
		if err := database.Init(&cfg.Database); err != nil {
			log.Fatal("初始化数据库失败", zap.Error(err))
		}
		db := database.GetDB()
		defer database.Close(db)
		deps.SpinRepo = repository.NewSlotSpinRepository(db)
		deps.MachineRepo = repository.NewSlotMachineRepository(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.NewSlotService(deps)
	if err := svc.RegisterMachine(ctx); err != nil {
		log.Fatal("注册机器失败", zap.Error(err))
	}

	summary, err := svc.Simulate(ctx, req)
	if summary == nil {
		log.Fatal("模拟失败", zap.Error(err))
	}
	if err != nil {
		log.Warn("模拟未完成", zap.Error(err))
	}

	for _, f := range summary.Failures {
		log.Error("旋转失败", zap.Int("index", f.Index), zap.String("error", f.Error))
	}

	fmt.Printf("Execution Time: %s\n", summary.Duration)
	fmt.Printf("Total Spins: %d\n", summary.TotalSpins)
	fmt.Printf("Total Wins: %d\n", summary.TotalWin)
	if summary.Failed > 0 {
		fmt.Printf("Failed Spins: %d\n", summary.Failed)
	}
	fmt.Printf("Hit Frequency: %.2f%%\n", summary.HitFrequency*100)

	if err != nil {
		os.Exit(1)
	}
}
