package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/controllers"
	"github.com/Jomkit/Omakase/middleware"
	"github.com/Jomkit/Omakase/models"
	"github.com/Jomkit/Omakase/services"
)

func main() {
	// Basic logging
	log.Println("Starting Omakase server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.Group{},
		&models.Role{},
		&models.User{},
		&models.MenuItem{},
		&models.Ingredient{},
		&models.Intolerant{},
		&models.Order{},
		&models.OrderedItem{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if cfg.SeedOnBoot {
		if err := config.Seed(db); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
		log.Println("Database seeding completed successfully")
	}

	// Initialize services
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
	} else {
		log.Println("No S3 bucket configured, menu image uploads disabled")
	}
	services.InitEventPublisher()
	services.InitQRCodeService()

	// Session store: Redis when configured, in-process memory otherwise
	var store middleware.SessionStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = middleware.NewRedisStore(client, time.Duration(cfg.SessionTTLHours)*time.Hour)
		log.Printf("Using Redis session store at %s", cfg.RedisAddr)
	} else {
		store = middleware.NewMemoryStore()
		log.Println("REDIS_ADDR not set, using in-memory session store")
	}

	router := setupRouter(store)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the full route tree: the customer workflow at the
// root, the employee surface under /employees, and the JSON API under
// /omakase/api.
func setupRouter(store middleware.SessionStore) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.Sessions(store))

	// Health check endpoint
	router.GET("/health", healthCheck)

	// Authentication
	router.POST("/login", controllers.Login)
	router.POST("/logout", controllers.Logout)

	// Customer workflow
	router.GET("/", controllers.RedirectEmployees(), controllers.LandingPage)
	router.GET("/dine-in/select-table",
		controllers.RedirectIfOrderActive(), controllers.RedirectEmployees(),
		controllers.SelectTablePage)
	router.POST("/dine-in/select-table",
		controllers.RedirectIfOrderActive(), controllers.RedirectEmployees(),
		controllers.SelectTable)
	router.POST("/takeout/contact-form",
		controllers.RedirectIfOrderActive(), controllers.RedirectEmployees(),
		controllers.TakeoutContactForm)
	router.POST("/delivery/contact-form",
		controllers.RedirectIfOrderActive(), controllers.RedirectEmployees(),
		controllers.DeliveryContactForm)
	router.GET("/order", controllers.RedirectEmployees(), controllers.OrderPage)
	router.GET("/checkout", controllers.RedirectEmployees(), controllers.CheckoutPage)
	router.POST("/payment", controllers.RedirectEmployees(), controllers.Payment)
	router.GET("/thank-you", controllers.RedirectEmployees(), controllers.ThankYouPage)
	router.GET("/tables/:id/qrcode", controllers.TableQRCode)

	// Employee surface
	employees := router.Group("/employees")
	{
		employees.GET("/dashboard",
			middleware.RequirePermission(middleware.ActionViewDashboard),
			controllers.Dashboard)
		employees.GET("/full-menu",
			middleware.RequirePermission(middleware.ActionViewDashboard),
			controllers.FullMenu)
		employees.GET("/list",
			middleware.RequirePermission(middleware.ActionViewDashboard),
			controllers.ListEmployees)
		employees.POST("",
			middleware.RequirePermission(middleware.ActionManageEmployees),
			controllers.RegisterEmployee)
		employees.DELETE("/:id",
			middleware.RequirePermission(middleware.ActionManageEmployees),
			controllers.DeleteUser)
		employees.PATCH("/restaurant",
			middleware.RequirePermission(middleware.ActionEditRestaurant),
			controllers.UpdateRestaurant)
		employees.POST("/menu-items",
			middleware.RequirePermission(middleware.ActionManageMenu),
			controllers.AddMenuItem)
		employees.POST("/menu-items/:id/image",
			middleware.RequirePermission(middleware.ActionManageMenu),
			controllers.UploadMenuItemImage)
	}

	// JSON API for external consumers
	api := router.Group("/omakase/api")
	api.Use(cors.Default())
	{
		api.GET("/orders", controllers.GetAllOrders)
		api.GET("/order/:id", controllers.GetOrderByID)
		api.POST("/order", controllers.CreateOrder)
		api.PATCH("/order/:id", controllers.UpdateOrder)
		api.PATCH("/order/:id/add_item", controllers.AddToOrder)
		api.GET("/menu/list_menu_items", controllers.ListMenuItems)
		api.GET("/menu/:id", controllers.GetMenuItem)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Omakase is running",
	})
}
