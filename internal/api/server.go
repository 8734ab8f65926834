package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/eventra-app/eventra-api/docs"
	v1 "github.com/eventra-app/eventra-api/internal/api/handler/v1"
	"github.com/eventra-app/eventra-api/internal/api/middleware"
	"github.com/eventra-app/eventra-api/internal/config"
	"github.com/eventra-app/eventra-api/internal/repository"
	"github.com/eventra-app/eventra-api/internal/repository/dao"
	"github.com/eventra-app/eventra-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	eventHandler := s.initEventHandler(db)
	paymentHandler := s.initPaymentHandler(db)
	s.MountHandlers(authHandler, userHandler, eventHandler, paymentHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(svc, s.Config.API.JWTSigningKey)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)
	svc := service.NewEventService(repo)
	handler := v1.NewEventHandler(svc)

	return handler
}

func (s *Server) initPaymentHandler(db *gorm.DB) *v1.PaymentHandler {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)
	svc := service.NewPaymentService(repo, s.Config.Stripe)
	handler := v1.NewPaymentHandler(svc, s.Config.Stripe.WebhookSecret)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, eventHandler *v1.EventHandler, paymentHandler *v1.PaymentHandler) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		// Authenticated by its Stripe signature, not a JWT.
		public.POST("/webhooks/stripe", paymentHandler.HandleStripeWebhook)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/me", userHandler.HandleGetMe)

		authed.GET("/deadline-suggestions", eventHandler.HandleSuggestDeadlines)

		authed.POST("/events", eventHandler.HandleCreateEvent)
		authed.GET("/events", eventHandler.HandleGetEvents)
		authed.GET("/events/:eventID", eventHandler.HandleGetEvent)
		authed.PATCH("/events/:eventID", eventHandler.HandleUpdateEvent)
		authed.DELETE("/events/:eventID", eventHandler.HandleCancelEvent)
		authed.POST("/events/:eventID/validate", eventHandler.HandleValidateEvent)
		authed.POST("/events/:eventID/register", eventHandler.HandleRegisterForEvent)

		authed.POST("/events/:eventID/checkout", paymentHandler.HandleStartCheckout)
		authed.POST("/events/:eventID/payments/cash", paymentHandler.HandleRecordCashPayment)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Eventra API"
	docs.SwaggerInfo.Description = "Event registration and payment API with temporal validation."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
