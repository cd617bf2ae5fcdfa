package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"jobboard/internal/api/auth"
	"jobboard/internal/api/middleware"
	"jobboard/internal/config"
	"jobboard/internal/model"
	"jobboard/internal/pkg/metrics"
	"jobboard/internal/pkg/notify"
	"jobboard/internal/pkg/ratelimit"
	"jobboard/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端、限流器与 Gin 路由引擎。
// 除配置和连接池外，请求之间不共享任何内存状态。
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *gorm.DB
	rdb     *redis.Client
	router  *gin.Engine
	auth    *auth.Handler
	issuer  *token.Issuer
	limiter *ratelimit.Limiter
	mailer  notify.Notifier

	notifyWG sync.WaitGroup // 在途的通知 goroutine，Close 前排空
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移（建表与唯一约束）
// 2. 连接 Redis
// 3. 初始化 Gin 路由引擎与各 Handler
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true, // 唯一约束冲突统一转成 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	mailer := notify.NewEmailNotifier(&cfg.Email, logger)
	return newServer(cfg, logger, db, rdb, mailer), nil
}

// newServer 在已有连接之上装配服务器。测试用 sqlite/miniredis 走同一条路径。
func newServer(cfg *config.Config, logger *slog.Logger, db *gorm.DB, rdb *redis.Client, mailer notify.Notifier) *Server {
	metrics.InitMetrics()

	issuer := token.NewIssuer(cfg.Security.JWTSecret, time.Duration(cfg.Security.TokenTTLMinutes)*time.Minute)
	limiter := ratelimit.NewLimiter(rdb, cfg.App.RateLimit, cfg.App.RateBurst)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		rdb:     rdb,
		router:  r,
		auth:    auth.NewHandler(db, issuer, cfg.Security.MinPasswordChars, logger),
		issuer:  issuer,
		limiter: limiter,
		mailer:  mailer,
	}
	s.registerRoutes()
	return s
}

// migrate 建表并创建全部唯一约束。
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Job{},
		&model.Application{},
		&model.CandidateProfile{},
	)
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 等待在途的通知发完，然后关闭数据库与缓存连接。
func (s *Server) Close() error {
	s.notifyWG.Wait()

	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if closeErr := sqlDB.Close(); closeErr != nil {
			if firstErr == nil {
				firstErr = closeErr
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/health", s.handleHealth)

	authGroup := s.router.Group("/auth")
	authGroup.Use(middleware.AuthRateLimit(s.limiter, s.logger))
	authGroup.POST("/register", s.auth.Register)
	authGroup.POST("/login", s.auth.Login)

	// 职位浏览不需要登录
	s.router.GET("/jobs/", s.handleListJobs)
	s.router.GET("/jobs/:id", s.handleGetJob)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.issuer, s.db))

	authed.GET("/profile/me", s.handleGetMyProfile)
	authed.PUT("/profile/", s.handleUpsertProfile)

	authed.POST("/companies/", s.handleCreateCompany)
	authed.GET("/companies/me", s.handleGetMyCompany)

	authed.POST("/jobs/", s.handleCreateJob)
	authed.PATCH("/jobs/:id", s.handleUpdateJob)

	authed.POST("/applications/", s.handleCreateApplication)
	authed.GET("/applications/me", s.handleListMyApplications)
	authed.GET("/applications/company", s.handleListCompanyApplications)
	authed.PATCH("/applications/:id/cancel", s.handleCancelApplication)

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/users", s.handleAdminUsers)
	admin.GET("/companies", s.handleAdminCompanies)
	admin.GET("/jobs", s.handleAdminJobs)
	admin.GET("/applications", s.handleAdminApplications)
	admin.GET("/profiles", s.handleAdminProfiles)
	admin.GET("/stats", s.handleAdminStats)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
