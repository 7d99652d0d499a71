package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rently/internal/infra/config"
	"rently/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Listings       ListingsHTTP
	Reviews        ReviewsHTTP
	Chat           ChatHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listings != nil {
		api.GET("/listings", h.Listings.SearchListings)
		api.POST("/listings", h.Listings.CreateListing)
		api.GET("/listings/:id", h.Listings.GetListing)
		api.PATCH("/listings/:id", h.Listings.UpdateListing)
		api.DELETE("/listings/:id", h.Listings.DeleteListing)
		api.POST("/listings/:id/photos", h.Listings.UploadPhoto)
		api.GET("/me/listings", h.Listings.MyListings)
	}
	if h.Reviews != nil {
		api.GET("/listings/:id/reviews", h.Reviews.ListingReviews)
		api.POST("/listings/:id/reviews", h.Reviews.SubmitReview)
		api.DELETE("/reviews/:id", h.Reviews.DeleteReview)
		api.GET("/me/reviews", h.Reviews.MyReviews)
	}
	if h.Chat != nil {
		api.POST("/messages", h.Chat.SendMessage)
		api.GET("/messages/conversations", h.Chat.ListConversations)
		api.GET("/messages/conversation/:user_id", h.Chat.GetConversation)
		api.POST("/messages/conversation/:user_id/read", h.Chat.MarkRead)
		api.GET("/messages/unread-count", h.Chat.UnreadCount)
		api.DELETE("/messages/:id", h.Chat.DeleteMessage)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
