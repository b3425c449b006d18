package router

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/config"
	"github.com/yeremiapane/qr-restaurant/controllers"
	"github.com/yeremiapane/qr-restaurant/live"
	"github.com/yeremiapane/qr-restaurant/middlewares"
	"github.com/yeremiapane/qr-restaurant/qr"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Config   *config.Config
	Hub      *live.Hub
	Sessions *services.SessionService
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Admin    *services.AdminService
	QR       *qr.Generator
}

// NewDeps wires the services on db and publishes their changes on hub.
func NewDeps(cfg *config.Config, db *gorm.DB, hub *live.Hub) Deps {
	return Deps{
		Config:   cfg,
		Hub:      hub,
		Sessions: services.NewSessionService(db, hub),
		Orders:   services.NewOrderService(db, hub),
		Catalog:  services.NewCatalogService(db),
		Admin:    services.NewAdminService(db),
		QR:       qr.NewGenerator(cfg.BaseURL),
	}
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	serveStatic(r, d.Config.StaticDir)

	tableCtrl := controllers.NewTableController(d.Sessions)
	menuCtrl := controllers.NewMenuController(d.Catalog)
	orderCtrl := controllers.NewOrderController(d.Orders, d.Sessions)
	adminCtrl := controllers.NewAdminController(d.Admin, d.Sessions)
	qrCtrl := controllers.NewQRController(d.QR, d.Config.TableCount)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Session start and order creation are the writes a diner can trigger
	// from the table without any login.
	limiter := middlewares.NewRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst)

	api := r.Group("/api")

	// ----------------------------------------------------------------
	//                      DINER ROUTES
	// ----------------------------------------------------------------
	api.GET("/tables", tableCtrl.GetAllTables)
	api.GET("/tables/:table_id", tableCtrl.GetTable)
	api.GET("/tables/number/:number", tableCtrl.GetTableByNumber)
	api.POST("/tables/:table_id/start", limiter.RateLimit(), tableCtrl.StartSession)
	api.POST("/tables/:table_id/reset", tableCtrl.ResetTable)

	api.GET("/menu", menuCtrl.GetMenu)
	api.GET("/menu/:item_id", menuCtrl.GetMenuItem)

	api.POST("/orders", limiter.RateLimit(), orderCtrl.CreateOrder)
	api.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	api.PATCH("/orders/:order_id", orderCtrl.UpdateNotes)
	api.POST("/orders/:order_id/lines", orderCtrl.AddLine)
	api.PATCH("/orders/:order_id/lines/:line_id", orderCtrl.UpdateLine)
	api.POST("/orders/:order_id/close", orderCtrl.CloseOrder)
	api.GET("/orders/table/:table_id", orderCtrl.GetOrdersByTable)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := api.Group("/admin")
	{
		admin.GET("/stats", adminCtrl.GetDashboardStats)
		admin.GET("/tables", adminCtrl.GetTables)
		admin.GET("/tables/:table_id", adminCtrl.GetTableDetails)
		admin.POST("/tables/:table_id/confirm-payment", adminCtrl.ConfirmPayment)
		admin.POST("/tables/:table_id/reset", adminCtrl.ResetTable)
		admin.POST("/menu", menuCtrl.CreateMenuItem)
		admin.PATCH("/menu/:item_id/availability", menuCtrl.SetAvailability)
	}

	qrGroup := api.Group("/qr-codes")
	{
		qrGroup.GET("", qrCtrl.ListCodes)
		qrGroup.GET("/print", qrCtrl.PrintPage)
		qrGroup.GET("/print.pdf", qrCtrl.PrintPDF)
		qrGroup.GET("/:number", qrCtrl.GetCode)
		qrGroup.GET("/:number/png", qrCtrl.GetPNG)
	}

	r.GET("/ws/admin", gin.WrapF(d.Hub.ServeWS))

	return r
}

// serveStatic exposes the diner and admin pages when dir exists.
func serveStatic(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		utils.InfoLogger.Printf("Static dir %s not found, serving API only", dir)
		return
	}
	r.Static("/static", dir)
	for route, file := range map[string]string{"/menu": "menu.html", "/admin": "admin.html"} {
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err == nil {
			r.StaticFile(route, path)
		}
	}
}
