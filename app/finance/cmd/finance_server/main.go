package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/omni_briefing/app/finance/internal/server"
	"github.com/iWorld-y/omni_briefing/app/finance/internal/service"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/engine"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/logger"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/storage"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "finance"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/finance/configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		stdlog.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志：业务日志走 logrus，传输层沿用 kratos logger
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		stdlog.Fatalf("无法初始化日志: %v", err)
	}
	klog := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	logger.Log.Info("启动金融简报服务...")

	// 3. 可选的报告归档
	var (
		archive service.Archiver
		repo    service.ReportRepo
	)
	if cfg.DB.Host != "" {
		store, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 报告将不会归档。", err)
		} else {
			defer store.Close()
			archive, repo = store, store
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过报告归档")
	}

	// 4. 初始化引擎，整个进程共享一个会话
	eng, err := engine.NewEngine(context.Background(), cfg, cart.New())
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	svc := service.NewFinanceService(eng, archive, klog)
	hs := server.NewHTTPServer(cfg.Server, svc, service.NewArchiveService(repo, klog), klog)

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(klog),
		kratos.Server(hs),
	)
	logger.Log.Infof("工具服务监听于 %s", cfg.Server.Addr)
	if err := app.Run(); err != nil {
		logger.Log.Fatalf("服务异常退出: %v", err)
	}
}
