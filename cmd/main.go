package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizdir_listing/internal/api/dto"
	"bizdir_listing/internal/config"
	"bizdir_listing/internal/controller"
	"bizdir_listing/internal/middleware"
	"bizdir_listing/internal/repository"
	"bizdir_listing/internal/router"
	"bizdir_listing/internal/service"
	"bizdir_listing/internal/session"
	"bizdir_listing/internal/task"
	"bizdir_listing/pkg/database"
	"bizdir_listing/pkg/directory"
	"bizdir_listing/pkg/logger"
	"bizdir_listing/pkg/mq"
)

var (
	configPath string
	cfg        *config.Config
	log        *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "listing",
	Short: "商家目录列表提交服务",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if log, err = logger.New(cfg.Log.Level, cfg.Log.Development); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "自动建表",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML 配置文件路径")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB            *gorm.DB
	Notifier      mq.Notifier
	SubmitLimiter *middleware.CooldownLimiter
	Services      *Services
	Controllers   *Controllers
	Tasks         *task.TaskManager
}

// Services 服务集合
type Services struct {
	Sessions   *session.Manager
	Storage    *service.StorageService
	Submission *service.SubmissionService
	Wizard     *service.WizardService
}

// Controllers 控制器集合
type Controllers struct {
	Wizard  *controller.WizardController
	Session *controller.SessionController
}

// ==================== 命令实现 ====================

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("数据表迁移完成")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. 初始化数据库
	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	// 2. 初始化依赖
	deps, err := initDependencies(db)
	if err != nil {
		return err
	}
	defer deps.Notifier.Close()

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		return err
	}
	defer deps.Tasks.Stop()

	// 4. 初始化路由
	r := initEngine(deps)

	// 5. 启动服务
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return startServer(ctx, r)
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) (*Dependencies, error) {
	// -------- 外部服务 --------
	dirClient := directory.NewClient(directory.ClientConfig{
		BaseURL:      cfg.Directory.BaseURL,
		Timeout:      cfg.Directory.Timeout,
		FetchRetries: cfg.Directory.FetchRetries,
		Debug:        cfg.Directory.Debug,
	}, session.BearerToken)
	authClient := directory.NewAuthClient(directory.ClientConfig{
		BaseURL: cfg.AuthBaseURL(),
		Timeout: cfg.Directory.Timeout,
		Debug:   cfg.Directory.Debug,
	})
	notifier := mq.NewNotifier(mq.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, log)

	submissionRepo := repository.NewSubmissionRepository(db)

	// -------- 业务服务 --------
	services := &Services{
		Sessions: session.NewManager(authClient, session.Config{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
			Leeway: cfg.Auth.Leeway,
		}, log.Named("session")),
		Storage: initStorageService(),
	}
	services.Submission = service.NewSubmissionService(
		dirClient, submissionRepo, notifier, log.Named("submission"),
	)

	var uploader service.ImageUploader
	if services.Storage != nil {
		uploader = services.Storage
	}
	services.Wizard = service.NewWizardService(
		dirClient, services.Submission, uploader, cfg.Wizard.IdleTTL, log.Named("wizard"),
	)

	// -------- Controller 层 --------
	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("注册校验规则失败: %w", err)
	}
	controllers := &Controllers{
		Wizard:  controller.NewWizardController(services.Wizard, services.Submission, cfg.Wizard.MaxUploadBytes),
		Session: controller.NewSessionController(services.Sessions, cookieConfig(), log.Named("session")),
	}

	// -------- 定时任务 --------
	limiter := middleware.NewCooldownLimiter()
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Sessions:    services.Wizard,
		Limiter:     limiter,
		Submissions: submissionRepo,
		Log:         log.Named("task"),
	}, &task.TaskManagerConfig{
		SweepEnabled:     cfg.Tasks.SweepEnabled,
		SweepSpec:        cfg.Tasks.SweepSpec,
		SubmitCooldown:   cfg.Wizard.SubmitCooldown,
		RetentionEnabled: cfg.Tasks.RetentionEnabled,
		RetentionSpec:    cfg.Tasks.RetentionSpec,
		Retention:        cfg.Tasks.Retention,
	})

	return &Dependencies{
		DB:            db,
		Notifier:      notifier,
		SubmitLimiter: limiter,
		Services:      services,
		Controllers:   controllers,
		Tasks:         tasks,
	}, nil
}

// initStorageService 初始化存储服务，失败时关闭图片上传
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
		MaxBytes:  cfg.Wizard.MaxUploadBytes,
	})
	if err != nil {
		log.Warn("存储服务初始化失败，图片上传不可用", zap.Error(err))
		return nil
	}
	return storageSvc
}

func cookieConfig() middleware.CookieConfig {
	return middleware.CookieConfig{
		Domain:   cfg.Cookie.Domain,
		Secure:   cfg.Cookie.Secure,
		MaxAge:   cfg.Cookie.MaxAge,
		SameSite: cfg.Cookie.SameSiteMode(),
	}
}

// initEngine 初始化 gin 引擎和路由
func initEngine(deps *Dependencies) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestLogger(log.Named("http")), middleware.Recovery(log.Named("http")))

	router.InitRoutes(r, router.Deps{
		WizardCtl:      deps.Controllers.Wizard,
		SessionCtl:     deps.Controllers.Session,
		Auth:           middleware.SessionAuth(deps.Services.Sessions, cookieConfig()),
		SubmitLimiter:  deps.SubmitLimiter,
		SubmitCooldown: cfg.Wizard.SubmitCooldown,
	})
	return r
}

// ==================== 服务启动 ====================

// startServer 启动服务，ctx 结束后优雅关闭
func startServer(ctx context.Context, r *gin.Engine) error {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("服务启动", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	log.Info("服务已退出")
	return nil
}
