// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/handler"
	"kiosk-client/internal/middleware"
	"kiosk-client/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	printer      handler.TicketPrinter
	device       handler.PrinterDevice
	statusStream *handler.StatusStreamHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	printer handler.TicketPrinter,
	device handler.PrinterDevice,
	statusStream *handler.StatusStreamHandler,
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		printer:      printer,
		device:       device,
		statusStream: statusStream,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.device, r.config, r.logger)
	printHandler := handler.NewPrintHandler(r.printer, r.logger)
	printerHandler := handler.NewPrinterHandler(r.device, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	r.addPrintRoutes(apiV1, printHandler, printerHandler)

	if r.statusStream != nil {
		router.GET("/ws/status", r.statusStream.HandleStatusConnection)
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addPrintRoutes sets up the print bridge and printer maintenance routes
func (r *Router) addPrintRoutes(api *gin.RouterGroup, printHandler *handler.PrintHandler, printerHandler *handler.PrinterHandler) {
	api.POST("/print", printHandler.PrintTicket)

	printer := api.Group("/printer")
	{
		printer.GET("", printerHandler.GetPrinter)
		printer.POST("/initialize", printerHandler.InitializePrinter)
		printer.POST("/paper-check", printerHandler.CheckPaper)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
