package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/domainkeeper/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SnapshotResolver  middleware.SnapshotResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインインベントリと候補
	DomainService DomainServiceInterface
	IdeaService   IdeaServiceInterface

	// プロジェクト
	ProjectService ProjectServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler
	HealthHandler  http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → CSRF → SessionMiddleware → RateLimit(General)
//
// 認証ルート（/auth/*）と運用エンドポイントはセッションミドルウェアの外に配置する。
// 変更操作には編集権限ガードと変更操作用レート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.SnapshotResolver, deps.AuthConfig)
	domainHandler := NewDomainHandler(deps.DomainService)
	ideaHandler := NewIdeaHandler(deps.IdeaService)
	projectHandler := NewProjectHandler(deps.ProjectService)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	if deps.HealthHandler != nil {
		r.Get("/health", deps.HealthHandler.ServeHTTP)
	}
	if deps.MetricsHandler != nil {
		r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SnapshotResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 変更操作用のミドルウェア: 編集権限ガード → 変更操作レート制限
		editor := func(r chi.Router) chi.Router {
			return r.With(
				middleware.NewEditorGuardMiddleware(),
				deps.RateLimiter.MutationMiddleware(),
			)
		}

		// ドメインインベントリ
		r.Route("/api/domains", func(r chi.Router) {
			r.Get("/", domainHandler.ListDomains)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", domainHandler.GetDomain)
				editor(r).Patch("/", domainHandler.UpdateDomain)
			})
		})

		// ドメイン候補
		r.Route("/api/ideas", func(r chi.Router) {
			r.Get("/", ideaHandler.ListIdeas)
			editor(r).Post("/", ideaHandler.AddIdea)
			editor(r).Delete("/{id}", ideaHandler.RemoveIdea)
		})

		// プロジェクト
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projectHandler.ListProjects)
			editor(r).Post("/", projectHandler.CreateProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.GetProject)
				r.Get("/stats", projectHandler.GetStats)
				editor(r).Patch("/notes", projectHandler.UpdateNotes)
				editor(r).Post("/toggle", projectHandler.ToggleCompletion)
			})
		})
	})

	return r
}
