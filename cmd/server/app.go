/*
 * @Description: 应用装配与生命周期
 * @Author: 安知鱼
 * @Date: 2025-10-17 10:35:28
 * @LastEditTime: 2026-10-19 12:41:09
 * @LastEditors: 安知鱼
 */
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/task"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/backend"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/sqlstore"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/config"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	draft_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/draft"
	form_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/form"
	submission_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/submission"
	version_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/version"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/utility"
)

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg        *config.Config
	engine     *gin.Engine
	scheduler  *task.Scheduler
	sqlDB      *sql.DB
	appVersion string
	mw         *middleware.Middleware
	cacheSvc   utility.CacheService
	eventBus   *event.EventBus
	presets    *intake.PresetStore
}

func (a *App) PrintBanner() {
	log.Println("--------------------------------------------------------")
	log.Printf(" Anheyu FM Console: %s", version.GetVersionString())
	log.Printf(" 缓存: %s, 暂存驱动: %s", utility.GetCacheServiceType(a.cacheSvc), a.cfg.GetString(config.KeyStorageDriver))
	log.Println("--------------------------------------------------------")
}

// storagePolicy 从 [Storage] 段读取暂存区配置
func storagePolicy(cfg *config.Config) storage.Policy {
	return storage.Policy{
		Driver:    constant.StorageDriver(cfg.GetString(config.KeyStorageDriver)),
		BasePath:  cfg.GetString(config.KeyStorageBasePath),
		Bucket:    cfg.GetString(config.KeyStorageBucket),
		Region:    cfg.GetString(config.KeyStorageRegion),
		Endpoint:  cfg.GetString(config.KeyStorageEndpoint),
		AccessKey: cfg.GetString(config.KeyStorageAccessKey),
		SecretKey: cfg.GetString(config.KeyStorageSecretKey),
		Domain:    cfg.GetString(config.KeyStorageDomain),
	}
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作
func NewApp(configPath string) (*App, func(), error) {
	appVersion := version.GetVersion()

	// --- Phase 1: 加载外部配置 ---
	cfg, err := config.NewConfigFromFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logOut, closeLog := setupLogging(cfg)

	// --- Phase 2: 初始化基础设施 ---
	sqlDB, dialect, err := database.NewSQLDB(cfg)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("创建数据库连接池失败: %w", err)
	}

	redisClient, err := database.NewRedisClient(context.Background(), cfg)
	if err != nil {
		sqlDB.Close()
		closeLog()
		return nil, nil, fmt.Errorf("redis 初始化失败: %w", err)
	}

	eventBus := event.NewEventBus()
	watchCtx, stopWatch := context.WithCancel(context.Background())

	cleanup := func() {
		log.Println("执行清理操作：关闭数据库连接...")
		stopWatch()
		eventBus.Shutdown()
		sqlDB.Close()
		closeRedis(redisClient)
		closeLog()
	}

	// --- Phase 3: 数据库迁移与 ID 编码器 ---
	if err := database.NewMigrationService(sqlDB, dialect).RunMigrations(context.Background()); err != nil {
		return nil, cleanup, fmt.Errorf("数据库迁移失败: %w", err)
	}
	if err := idgen.InitSqidsEncoderWithSeed(cfg.GetString(config.KeyServerIDSeed)); err != nil {
		return nil, cleanup, fmt.Errorf("初始化 ID 编码器失败: %w", err)
	}
	log.Println("✅ ID 编码器初始化成功")

	// --- Phase 4: 初始化业务逻辑层 ---
	cacheSvc := utility.NewCacheServiceWithFallback(redisClient)

	store, err := storage.NewStore(storagePolicy(cfg))
	if err != nil {
		return nil, cleanup, fmt.Errorf("初始化暂存区失败: %w", err)
	}

	presets, err := intake.NewPresetStore(cfg.GetString(config.KeyIntakePresetFile), content.DefaultPresets())
	if err != nil {
		return nil, cleanup, fmt.Errorf("加载比例预设失败: %w", err)
	}
	if err := presets.Watch(watchCtx); err != nil {
		log.Printf("⚠️ 比例预设热更新未启用: %v", err)
	}

	limits := content.Limits{
		MaxImageBytes: int64(cfg.GetIntOrDefault(config.KeyIntakeMaxImageMB, constant.DefaultMaxImageMB)) * intake.MB,
		MaxVideoBytes: int64(cfg.GetIntOrDefault(config.KeyIntakeMaxVideoMB, constant.DefaultMaxVideoMB)) * intake.MB,
	}
	registry := content.NewRegistry(presets, limits)

	backendClient, err := backend.NewClient(backend.Options{
		BaseURL:           cfg.GetString(config.KeyUpstreamBaseURL),
		Token:             cfg.GetString(config.KeyUpstreamToken),
		Timeout:           cfg.GetDuration(config.KeyUpstreamTimeout, 60*time.Second),
		RequestsPerSecond: cfg.GetFloat(config.KeyUpstreamRPS),
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("初始化后端客户端失败: %w", err)
	}

	submissionRepo := sqlstore.NewSubmissionRepo(sqlDB, dialect)
	draftSvc := draft.NewService(cacheSvc, store, registry, eventBus, cfg.GetDuration(config.KeyIntakeDraftTTL, draft.DefaultTTL))
	contentSvc := content.NewService(registry, draftSvc, backendClient, submissionRepo, eventBus)
	activity := listener.NewIntakeActivityListener(eventBus)

	scheduler := task.NewScheduler(draftSvc, logOut)

	// --- Phase 5: 初始化表现层 ---
	maxUpload := limits.MaxVideoBytes
	if limits.MaxImageBytes > maxUpload {
		maxUpload = limits.MaxImageBytes
	}
	mw := middleware.NewMiddleware(cfg.GetString(config.KeyAuthJWTSecret))
	if !mw.Enabled() {
		log.Println("⚠️ 未配置 Auth.JWTSecret，API 不校验访问令牌")
	}

	appRouter := router.NewRouter(
		form_handler.NewHandler(contentSvc),
		draft_handler.NewHandler(draftSvc, contentSvc, maxUpload),
		submission_handler.NewHandler(contentSvc),
		version_handler.NewHandler(activity.Stats),
		mw,
		router.DefaultRateLimits(),
	)

	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.MaxMultipartMemory = maxUpload + intake.MB
	engine.Use(gin.LoggerWithWriter(logOut), gin.RecoveryWithWriter(logOut))
	engine.Use(middleware.Cors(cfg.GetStringSlice(config.KeyServerAllowOrigins)...))
	appRouter.Setup(engine)

	app := &App{
		cfg:        cfg,
		engine:     engine,
		scheduler:  scheduler,
		sqlDB:      sqlDB,
		appVersion: appVersion,
		mw:         mw,
		cacheSvc:   cacheSvc,
		eventBus:   eventBus,
		presets:    presets,
	}
	return app, cleanup, nil
}

func closeRedis(client *redis.Client) {
	if client == nil {
		return
	}
	log.Println("关闭 Redis 连接...")
	client.Close()
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

// Version 返回应用的版本号
func (a *App) Version() string {
	return a.appVersion
}

func (a *App) Run() error {
	if err := a.scheduler.RegisterJobs(); err != nil {
		return err
	}
	a.scheduler.Start()

	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	log.Printf("应用程序启动成功，正在监听端口: %s", port)
	return a.engine.Run(":" + port)
}

func (a *App) Stop() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		log.Println("任务调度器已停止。")
	}
}
