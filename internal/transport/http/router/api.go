package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mangazone-api/internal/core/auth"
	"mangazone-api/internal/core/config"
	"mangazone-api/internal/core/server"
	"mangazone-api/internal/domain"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/ez"
	"mangazone-api/internal/transport/http/handler"
	mdw "mangazone-api/internal/transport/http/middleware"
	resp "mangazone-api/internal/transport/http/response"
)

// Deps is everything the engine needs; main builds it once.
type Deps struct {
	Log        *zap.Logger
	Config     *config.Config
	JWT        *auth.JWTer
	Store      domain.Store
	Accounts   *service.AccountService
	Library    *service.LibraryService
	Comments   *service.CommentService
	Admin      *service.AdminService
	Propagator *service.Propagator
}

func NewAPIEngine(d Deps) *gin.Engine {
	app := d.Config.App
	h := app.HTTP
	mode := gin.ReleaseMode
	if app.IsDevelopment() {
		mode = gin.DebugMode
	}
	r := server.NewRouter(d.Log, server.Options{Mode: mode, AllowOrigins: d.Config.CORS.AllowOrigins})

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(h.RateLimitRPS), h.RateLimitBurst),
		mdw.ConcurrencyLimit(h.MaxInFlight),
		mdw.MaxBodyBytes(int64(h.MaxBodyMB)<<20),
		mdw.Timeout(time.Duration(h.RequestTimeoutSec)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	sys := handler.NewSystemHandler(app.Name, app.Version, d.Store)
	r.GET("/", sys.Info)
	r.GET("/metrics", mdw.MetricsHandler())
	r.GET("/api/health", sys.Health)

	// every authenticated route re-checks the stored account
	authn := gin.HandlersChain{mdw.AuthJWT(d.JWT), mdw.RequireActive(d.Accounts, d.Log)}
	reg := &Registry{}
	reg.Add(
		handler.NewAccountHandler(d.Accounts, d.JWT, authn),
		handler.NewCommentHandler(d.Comments, d.Accounts, authn),
		handler.NewLibraryHandler(d.Library, d.Accounts, authn),
		handler.NewAdminHandler(d.Admin, d.Propagator),
	)

	api := ez.New(r.Group("/api"), d.Log, app.IsDevelopment())
	reg.MountAPI(api)
	reg.MountAdmin(api.Group("/admin", authn[0], authn[1], mdw.RequireAdmin(d.Accounts, d.Log)))

	r.NoRoute(func(c *gin.Context) {
		resp.Abort(c, http.StatusNotFound, "API endpoint not found")
	})
	return r
}
