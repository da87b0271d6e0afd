package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/logger"
)

// RouterConfig holds every dependency of the HTTP surface. Optional parts
// are skipped when nil.
type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string

	Health        *HealthController
	Users         *UsersController
	Books         *BooksController
	BookRequests  *BookRequestsController
	Materials     *MaterialsController
	Forum         *ForumController
	Chat          *ChatController
	Notifications *NotificationsController
	Tasks         *TasksController // optional

	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager // optional
	LoginLimiter   *auth.LoginLimiter   // optional
	CSRFSecret     []byte               // empty disables CSRF protection
	SecureCookies  bool
	Tokens         *auth.Tokens

	// UploadsDir is served under UploadsPath when set.
	UploadsDir  string
	UploadsPath string
}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", auth.CSRFTokenHeader, IdempotencyHeader, RequestIDHeader}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = corsHeaders
	corsConfig.ExposeHeaders = []string{"Content-Length", auth.CSRFTokenHeader, RequestIDHeader}
	corsConfig.AllowCredentials = true
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.Use(auth.SecurityHeadersMiddleware())

	// Sessions must be loaded before the auth middleware reads them.
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Tokens, cfg.SessionManager))
	}

	if cfg.UploadsDir != "" {
		path := cfg.UploadsPath
		if path == "" {
			path = "/uploads"
		}
		router.Static("/"+strings.Trim(path, "/"), cfg.UploadsDir)
	}

	// Health endpoints
	if cfg.Health != nil {
		router.GET("/health", cfg.Health.Status)
		router.GET("/ping", cfg.Health.Ping)
	}

	api := router.Group("/api")

	api.GET("/tags", ListTags)

	// Accounts
	if cfg.Users != nil {
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", cfg.Users.Signup)
		if cfg.LoginLimiter != nil {
			authGroup.POST("/login", cfg.LoginLimiter.Middleware(), cfg.Users.Login)
		} else {
			authGroup.POST("/login", cfg.Users.Login)
		}
		authGroup.POST("/logout", cfg.Users.Logout)
		authGroup.GET("/csrf", cfg.Users.CSRFToken)

		api.GET("/users/me", cfg.Users.Me)
		api.GET("/users/:id", cfg.Users.GetUser)
	}

	// Book catalogue
	if cfg.Books != nil {
		api.POST("/books", cfg.Books.CreateBook)
		api.GET("/books", cfg.Books.ListBooks)
		api.GET("/books/search", cfg.Books.SearchBooks)
		api.GET("/books/filter", cfg.Books.FilterBooks)
		api.GET("/books/:id", cfg.Books.GetBook)
		api.DELETE("/books/:id", cfg.Books.DeleteBook)
	}

	// Borrowing workflow
	if cfg.BookRequests != nil {
		api.POST("/book-requests", cfg.BookRequests.CreateRequest)
		api.PUT("/book-requests/:id/accept", cfg.BookRequests.AcceptRequest)
		api.PUT("/book-requests/:id/decline", cfg.BookRequests.DeclineRequest)
		api.GET("/book-requests/requester/:id", cfg.BookRequests.ListForRequester)
		api.GET("/book-requests/:id", cfg.BookRequests.ListForOwner)
	}

	// Study materials and ratings
	if cfg.Materials != nil {
		api.POST("/materials", cfg.Materials.CreateMaterial)
		api.GET("/materials", cfg.Materials.ListMaterials)
		api.GET("/materials/search", cfg.Materials.SearchMaterials)
		api.GET("/materials/filter", cfg.Materials.FilterMaterials)
		api.PUT("/materials/update", cfg.Materials.UpdateMaterial)
		api.PUT("/materials/rating", cfg.Materials.AddRating)
		api.GET("/materials/:id", cfg.Materials.GetMaterial)
		api.DELETE("/materials/:id", cfg.Materials.DeleteMaterial)
		api.GET("/ratings/user-rating", cfg.Materials.GetUserRating)
	}

	// Forum
	if cfg.Forum != nil {
		api.POST("/posts", cfg.Forum.CreatePost)
		api.GET("/posts", cfg.Forum.ListPosts)
		api.GET("/posts/search", cfg.Forum.SearchPosts)
		api.GET("/posts/filter", cfg.Forum.FilterPosts)
		api.GET("/posts/:id", cfg.Forum.GetPost)
		api.DELETE("/posts/:id", cfg.Forum.DeletePost)

		api.POST("/replies/to-post/:postId", cfg.Forum.ReplyToPost)
		api.POST("/replies/to-reply/:replyId", cfg.Forum.ReplyToReply)
		api.DELETE("/replies/:id", cfg.Forum.DeleteReply)
		api.GET("/replies", cfg.Forum.ListReplies)
	}

	if cfg.Chat != nil {
		api.POST("/chat", cfg.Chat.Chat)
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		api.GET("/tasks/types", cfg.Tasks.ListTaskTypes)
		api.GET("/tasks/:id", cfg.Tasks.GetTaskStatus)
		api.POST("/tasks/:type/run", cfg.Tasks.RunTask)
	}

	if cfg.Notifications != nil {
		router.GET("/ws/book-requests/:userId", cfg.Notifications.Subscribe)
	}

	return router
}
