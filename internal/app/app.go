// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/domainkeeper/internal/auth"
	"github.com/hitoshi/domainkeeper/internal/config"
	"github.com/hitoshi/domainkeeper/internal/database"
	"github.com/hitoshi/domainkeeper/internal/handler"
	"github.com/hitoshi/domainkeeper/internal/hook"
	"github.com/hitoshi/domainkeeper/internal/inventory"
	"github.com/hitoshi/domainkeeper/internal/logger"
	"github.com/hitoshi/domainkeeper/internal/mailer"
	"github.com/hitoshi/domainkeeper/internal/metrics"
	"github.com/hitoshi/domainkeeper/internal/middleware"
	"github.com/hitoshi/domainkeeper/internal/model"
	"github.com/hitoshi/domainkeeper/internal/notify"
	"github.com/hitoshi/domainkeeper/internal/project"
	"github.com/hitoshi/domainkeeper/internal/registrar"
	"github.com/hitoshi/domainkeeper/internal/repository"
	"github.com/hitoshi/domainkeeper/internal/security"
	"github.com/hitoshi/domainkeeper/internal/session"
	"github.com/hitoshi/domainkeeper/internal/worker"
	"github.com/hitoshi/domainkeeper/internal/worker/cleanup"
	"github.com/hitoshi/domainkeeper/internal/worker/purge"
	"github.com/hitoshi/domainkeeper/internal/worker/report"
	syncjob "github.com/hitoshi/domainkeeper/internal/worker/sync"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateUser:
		return runCreateUser(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	domainRepo := repository.NewPostgresDomainRepo(db)
	ideaRepo := repository.NewPostgresDomainIdeaRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)

	// 3. ドメインサービスの初期化
	snapshotProvider := session.NewProvider(sessionRepo, userRepo)
	authService := auth.NewService(
		userRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	inventoryService := inventory.NewService(domainRepo, ideaRepo, slog.Default())
	projectService := project.NewService(projectRepo, domainRepo, slog.Default())

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry)

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		// configのRATE_LIMIT_GENERALはreq/min単位なのでreq/secに変換する
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}

	deps := &handler.RouterDeps{
		SnapshotResolver:  snapshotProvider,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		DomainService:  inventoryService,
		IdeaService:    inventoryService,
		ProjectService: projectService,

		MetricsHandler: metrics.Handler(registry),
		HealthHandler:  handler.NewHealthHandler(db),
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、スケジュールタスク（クリーンアップ、セッション削除、
// 有効期限レポート、レジストラ同期）を登録してスケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとメトリクスの初期化
	domainRepo := repository.NewPostgresDomainRepo(db)
	ideaRepo := repository.NewPostgresDomainIdeaRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	collector := metrics.NewCollector(prometheus.NewRegistry())

	// 3. フックディスパッチャーの初期化
	// 送信抑止が有効な場合は全メーラーポイントに抑止ハンドラーを登録する
	dispatcher := hook.NewDispatcher(slog.Default())
	if cfg.SuppressEmails {
		mailer.RegisterSuppressionHooks(dispatcher, slog.Default())
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	dispatcher.Dispatch(ctx, hook.Event{Point: hook.PointBootstrap})

	// 4. 通知クライアントの初期化
	// Webhook通知先はSSRF防止の静的検証を通過したURLのみ使用する。
	// 配信時のHTTPクライアントもDNS解決後のIP検証を行うSafeClientを使用する。
	guard := security.NewEgressGuard()
	var endpoints []string
	for _, u := range cfg.WebhookURLs {
		if err := guard.ValidateURL(u); err != nil {
			slog.Warn("unsafe webhook URL rejected",
				slog.String("url", u),
				slog.String("error", err.Error()),
			)
			continue
		}
		endpoints = append(endpoints, u)
	}
	webhookClient := notify.NewWebhookClient(
		guard.NewSafeClient(cfg.WebhookTimeout),
		endpoints,
		collector,
		slog.Default(),
	)

	// 5. スケジュールタスクの登録
	scheduler := worker.NewScheduler(collector, slog.Default())

	cleanupJob := cleanup.NewCleanupJob(ideaRepo, collector, slog.Default())
	scheduler.Add(cleanupJob, worker.DailySchedule{Hour: cfg.CleanupHourUTC})

	purgeJob := purge.NewPurgeJob(sessionRepo, slog.Default())
	scheduler.Add(purgeJob, worker.IntervalSchedule{Interval: cfg.SessionPurgeInterval})

	reportJob := report.NewReportJob(
		domainRepo, webhookClient, collector, slog.Default(), cfg.ExpiryWindowDays,
	)
	if cfg.SMTPAddr != "" && cfg.ReportEmailTo != "" {
		sender := mailer.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom)
		reportMailer := mailer.NewMailer(sender, dispatcher, collector, slog.Default())
		reportJob = reportJob.WithMail(reportMailer, cfg.ReportEmailTo)
	}
	scheduler.Add(reportJob, worker.WeeklySchedule{
		Weekday: cfg.ReportWeekday,
		Hour:    cfg.ReportHourUTC,
	})

	// レジストラAPIキーが設定されている場合のみ同期タスクを登録する
	if cfg.RegistrarAPIKey != "" && cfg.RegistrarSecretKey != "" {
		porkbun, err := registrar.NewPorkbunClient(
			cfg.RegistrarAPIKey, cfg.RegistrarSecretKey, slog.Default(),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize registrar client: %w", err)
		}
		sync := syncjob.NewSyncJob(porkbun, domainRepo, collector, slog.Default())
		scheduler.Add(sync, worker.IntervalSchedule{Interval: cfg.RegistrarSyncInterval})
	} else {
		slog.Info("registrar sync disabled (no API credentials)")
	}

	slog.Info("worker starting",
		slog.Int("cleanup_hour_utc", cfg.CleanupHourUTC),
		slog.String("report_weekday", cfg.ReportWeekday.String()),
		slog.Int("report_hour_utc", cfg.ReportHourUTC),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration version check failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runCreateUser は管理用のユーザー作成サブコマンドを実行する。
// 使用法: domainkeeper create-user <email> <password> [role]
// ロールを省略した場合はoperatorとして作成する。
func runCreateUser(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create-user <email> <password> [role]")
	}
	email, password := args[0], args[1]

	role := model.RoleOperator
	if len(args) >= 3 {
		role = model.Role(args[2])
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	authService := auth.NewService(
		repository.NewPostgresUserRepo(db),
		repository.NewPostgresSessionRepo(db),
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	// 表示名はメールアドレスのローカル部を初期値とする
	name := email
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}

	user, err := authService.CreateUser(context.Background(), email, name, password, role)
	if err != nil {
		return fmt.Errorf("user creation failed: %w", err)
	}

	slog.Info("user created successfully",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", string(user.Role)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
