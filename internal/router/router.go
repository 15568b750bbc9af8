package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"go-tenant-auth-service/internal/http/handler"
	"go-tenant-auth-service/internal/http/middleware"
	"go-tenant-auth-service/internal/http/response"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/security"
	"go-tenant-auth-service/internal/service"
)

type Config struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	JWTManager  *security.JWTManager
	AuthSvc     *service.AuthService
	OrgSvc      *service.OrgService
	TeamSvc     *service.TeamService
	UserSvc     *service.UserService
	Users       repository.UserRepository
	Avatars     service.AvatarStore
	AuthLimiter *middleware.RateLimiter
}

// New assembles the full /api/v1 route tree. Everything except the
// credential endpoints and health sits behind the bearer authenticator;
// the admin subtree additionally requires staff claims.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	authHandler := handler.NewAuthHandler(cfg.AuthSvc)
	orgHandler := handler.NewOrgHandler(cfg.OrgSvc, cfg.Users)
	teamHandler := handler.NewTeamHandler(cfg.TeamSvc, cfg.Users)
	roleHandler := handler.NewRoleHandler(cfg.OrgSvc, cfg.Users)
	meHandler := handler.NewMeHandler(cfg.Users, cfg.Avatars)
	adminHandler := handler.NewAdminUserHandler(cfg.UserSvc)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		code := http.StatusOK
		if cfg.DB != nil {
			if sqlDB, err := cfg.DB.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		response.JSON(w, req, code, map[string]string{"status": status})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			if cfg.AuthLimiter != nil {
				auth.Use(cfg.AuthLimiter.Middleware())
			}
			auth.Post("/signup", authHandler.Signup)
			auth.Get("/verify-email", authHandler.VerifyEmail)
			auth.Post("/verify-email", authHandler.VerifyEmail)
			auth.Post("/resend-verification", authHandler.ResendVerification)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/request-password-reset", authHandler.RequestPasswordReset)
			auth.Post("/reset-password", authHandler.ResetPassword)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(cfg.JWTManager))

			protected.Route("/orgs", func(orgs chi.Router) {
				orgs.Get("/", orgHandler.List)
				orgs.Post("/", orgHandler.Create)
				orgs.Get("/{org_id}", orgHandler.Get)
				orgs.Patch("/{org_id}", orgHandler.Update)
				orgs.Delete("/{org_id}", orgHandler.Delete)
			})

			protected.Route("/teams", func(teams chi.Router) {
				teams.Get("/", teamHandler.List)
				teams.Post("/", teamHandler.Create)
				teams.Get("/{team_id}", teamHandler.Get)
				teams.Patch("/{team_id}", teamHandler.Update)
				teams.Delete("/{team_id}", teamHandler.Delete)
				teams.Get("/{team_id}/members", teamHandler.ListMembers)
				teams.Post("/{team_id}/members", teamHandler.AddMember)
				teams.Patch("/{team_id}/members/role", teamHandler.SetMemberRole)
				teams.Delete("/{team_id}/members", teamHandler.RemoveMember)
			})

			protected.Get("/roles", roleHandler.List)

			protected.Route("/me", func(me chi.Router) {
				me.Get("/", meHandler.Me)
				me.Post("/avatar", meHandler.UploadAvatar)
				me.Delete("/avatar", meHandler.DeleteAvatar)
			})

			protected.Route("/admin", func(admin chi.Router) {
				admin.Use(middleware.RequireStaff)
				admin.Get("/users", adminHandler.List)
				admin.Get("/users/{user_id}", adminHandler.Get)
				admin.Delete("/users/{user_id}", adminHandler.Delete)
			})
		})
	})

	return r
}
