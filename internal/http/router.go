package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/usersapi/internal/config"
	"github.com/geocoder89/usersapi/internal/http/handlers"
	"github.com/geocoder89/usersapi/internal/http/middlewares"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the router wires into handlers. Prom and Ready
// are optional.
type Deps struct {
	Log   *slog.Logger
	Users handlers.UsersService
	Ready func(ctx context.Context) error
	Prom  *observability.Prom
}

func NewRouter(deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// middleware

	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	}
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found", "no route for "+ctx.Request.Method+" "+ctx.Request.URL.Path)
	})
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusMethodNotAllowed, "Method not allowed", ctx.Request.Method+" is not supported on "+ctx.Request.URL.Path, nil)
	})

	// Routes
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	r.GET("/", handlers.Root)

	usersHandler := handlers.NewUsersHandler(deps.Users, log)

	api := r.Group("/api", middlewares.RequireJSON())
	{
		api.GET("/users", usersHandler.ListUsers)
		api.POST("/users", usersHandler.CreateUser)
		api.PUT("/users/:id", usersHandler.UpdateUser)
		api.DELETE("/users/:id", usersHandler.DeleteUser)
	}

	return r
}
