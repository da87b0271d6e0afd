package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/chat"
	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/database/bookrequests"
	"github.com/mrlokans/bookshare/internal/database/books"
	"github.com/mrlokans/bookshare/internal/database/materials"
	"github.com/mrlokans/bookshare/internal/database/posts"
	"github.com/mrlokans/bookshare/internal/database/ratings"
	"github.com/mrlokans/bookshare/internal/database/replies"
	"github.com/mrlokans/bookshare/internal/database/users"
	http_controllers "github.com/mrlokans/bookshare/internal/http"
	"github.com/mrlokans/bookshare/internal/idempotency"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/notify"
	"github.com/mrlokans/bookshare/internal/scheduler"
	"github.com/mrlokans/bookshare/internal/services"
	"github.com/mrlokans/bookshare/internal/storage/providers"
	"github.com/mrlokans/bookshare/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// gracefully.
func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	log.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Stop background work after in-flight requests have finished.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
	return nil
}

// Core holds the database and the domain services shared by the server and
// the maintenance commands.
type Core struct {
	DB *database.Database

	Users        *users.Repository
	Books        *books.Repository
	BookRequests *bookrequests.Repository
	Materials    *materials.Repository
	Ratings      *ratings.Repository
	Posts        *posts.Repository
	Replies      *replies.Repository
}

// OpenCore opens the database and builds the repositories.
func OpenCore(cfg *config.Config, log *logger.Logger) (*Core, error) {
	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &Core{
		DB:           db,
		Users:        users.NewRepository(db.DB),
		Books:        books.NewRepository(db.DB),
		BookRequests: bookrequests.NewRepository(db.DB),
		Materials:    materials.NewRepository(db.DB),
		Ratings:      ratings.NewRepository(db.DB),
		Posts:        posts.NewRepository(db.DB),
		Replies:      replies.NewRepository(db.DB),
	}, nil
}

// BookRequestService builds the borrowing workflow with the given notifier.
func (c *Core) BookRequestService(notifier services.Notifier, log *logger.Logger) *services.BookRequestService {
	return services.NewBookRequestService(c.DB, c.Books, c.BookRequests, c.Users, notifier, log)
}

// Reconcile runs one compensating sweep over approved book requests and
// returns the number of requests it declined.
func Reconcile(ctx context.Context, cfg *config.Config, log *logger.Logger) (int, error) {
	core, err := OpenCore(cfg, log)
	if err != nil {
		return 0, err
	}
	defer core.DB.Close()
	return core.BookRequestService(notify.Nop{}, log).ReconcileApproved(ctx)
}

// Run wires every component and serves HTTP until shutdown.
func Run(cfg *config.Config, log *logger.Logger, version string) error {
	log.Info("Starting BookShare", "version", version)
	ctx := context.Background()

	core, err := OpenCore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.DB.Close(); err != nil {
			log.Warn("Error closing database", "error", err)
		}
	}()

	blobs, uploadsDir, err := providers.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	hub := notify.NewHub(log, originChecker(cfg.HTTP.AllowedOrigins))
	defer hub.Close()

	// Auth
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		log.Warn("Generated JWT secret; tokens will not survive a restart (set AUTH_JWT_SECRET to persist)")
	}
	tokens := auth.NewTokens(jwtSecret, cfg.Auth.TokenExpiry)

	var (
		sessionManager *auth.SessionManager
		loginLimiter   *auth.LoginLimiter
		csrfSecret     []byte
	)
	if cfg.Auth.Mode == config.AuthModeJWT {
		log.Info("Authentication mode: jwt")

		sessionManager, err = newSessionManager(core.DB, cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize session manager: %w", err)
		}
		csrfSecret, err = loadCSRFSecret(cfg.Auth.SessionSecret, log)
		if err != nil {
			return err
		}
		loginLimiter = auth.NewLoginLimiter(auth.LoginLimitConfig{})
		defer loginLimiter.Stop()
	} else {
		log.Info("Authentication mode: none (no authentication required)")
	}

	// Idempotency keys
	var (
		keys      idempotency.Store
		purger    tasks.KeyPurger
		rdb       *goredis.Client
		gormStore *idempotency.GormStore
	)
	if cfg.Redis.Addr != "" {
		rdb, err = idempotency.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		redisStore := idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL)
		keys, purger = redisStore, redisStore
		log.Info("Idempotency keys stored in redis", "addr", cfg.Redis.Addr)
	} else {
		gormStore = idempotency.NewGormStore(core.DB.DB, cfg.Redis.IdempotencyTTL)
		keys, purger = gormStore, gormStore
	}

	userSvc := services.NewUserService(core.Users, tokens, cfg.Auth.BcryptCost, log)
	requestSvc := core.BookRequestService(hub, log)

	// Task queue
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled && core.DB.IsSQLite() {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks), log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Warn("Error closing task client", "error", err)
			}
		}()

		taskClient.RegisterHandlers(tasks.Handlers{
			Blobs:      blobs,
			Reconciler: requestSvc,
			Purger:     purger,
		})
	} else if cfg.Tasks.Enabled {
		log.Warn("Task queue requires the sqlite driver; blob cleanup will run inline")
	}
	cleaner := tasks.NewBlobCleaner(taskClient, blobs, log)

	bookSvc := services.NewBookService(core.DB, core.Books, core.BookRequests, blobs, cleaner, log)
	materialSvc := services.NewMaterialService(core.DB, core.Materials, core.Ratings, blobs, cleaner, log)
	ratingSvc := services.NewRatingService(core.DB, core.Materials, core.Users, core.Ratings, log)
	replySvc := services.NewReplyService(core.DB, core.Posts, core.Replies, log)
	postSvc := services.NewPostService(core.DB, core.Posts, core.Replies, core.Users, replySvc, log)

	// Periodic maintenance
	sched := scheduler.New(log)
	if cfg.Reconcile.Enabled {
		err := sched.Add(scheduler.Job{
			Name:     tasks.ReconcileQueue,
			Schedule: cfg.Reconcile.Schedule,
			Run: func(ctx context.Context) error {
				if taskClient != nil {
					_, err := taskClient.Add(tasks.ReconcileBookRequestsTask{Trigger: "schedule"}).Ctx(ctx).Save()
					return err
				}
				declined, err := requestSvc.ReconcileApproved(ctx)
				if err == nil && declined > 0 {
					log.Info("Reconciled book requests", "declined", declined)
				}
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("invalid reconcile schedule: %w", err)
		}
	}
	if gormStore != nil {
		err := sched.Add(scheduler.Job{
			Name:     tasks.PurgeIdempotencyQueue,
			Schedule: "0 * * * *",
			Run: func(ctx context.Context) error {
				_, err := gormStore.Purge(ctx)
				return err
			},
		})
		if err != nil {
			return err
		}
	}
	if taskClient != nil {
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		defer taskCtxCancel()
		go taskClient.Start(taskCtx)
	}
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	sched.Start(schedCtx)

	// HTTP surface
	health := http_controllers.NewHealthController(core.DB, version)
	if rdb != nil {
		health.WithCheck("redis", http_controllers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	routerCfg := http_controllers.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Health:         health,
		Users:          http_controllers.NewUsersController(userSvc, sessionManager, loginLimiter, log),
		Books:          http_controllers.NewBooksController(bookSvc, log),
		BookRequests:   http_controllers.NewBookRequestsController(requestSvc, core.BookRequests, keys, log),
		Materials:      http_controllers.NewMaterialsController(materialSvc, ratingSvc, keys, log),
		Forum:          http_controllers.NewForumController(postSvc, replySvc, log),
		Chat:           http_controllers.NewChatController(chat.NewClient(cfg.Chat, log), log),
		Notifications:  http_controllers.NewNotificationsController(hub, cfg.Auth.Mode, log),
		AuthMiddleware: auth.NewMiddleware(tokens, sessionManager, userSvc, cfg.Auth),
		SessionManager: sessionManager,
		LoginLimiter:   loginLimiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Tokens:         tokens,
		UploadsDir:     uploadsDir,
		UploadsPath:    "/uploads",
	}
	if taskClient != nil {
		routerCfg.Tasks = http_controllers.NewTasksController(taskClient)
	}

	if cfg.Log.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, log, onShutdown)
}

// newSessionManager stores sessions in the application database on SQLite
// and in memory otherwise.
func newSessionManager(db *database.Database, cfg config.Auth) (*auth.SessionManager, error) {
	if !db.IsSQLite() {
		return auth.NewSessionManager(nil, cfg)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}
	return auth.NewSessionManager(sqlDB, cfg)
}

// loadCSRFSecret decodes the configured secret, accepting hex or raw bytes,
// and generates one when unset.
func loadCSRFSecret(configured string, log *logger.Logger) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}
	generated, err := auth.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Info("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

// originChecker admits WebSocket upgrades from the configured CORS origins.
// An empty list admits every origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
