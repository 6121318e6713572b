// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/handlers"
	"github.com/biologist/catalog-backend/internal/middleware"
	"github.com/biologist/catalog-backend/internal/services"
)

func Initialize(db *gorm.DB, cfg *config.Config, importService *services.ImportService) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	catalogService := services.NewCatalogService(db)
	enquiryService := services.NewEnquiryService(db, notificationService)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(catalogService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	enquiryHandler := handlers.NewEnquiryHandler(enquiryService)
	adminHandler := handlers.NewAdminHandler(importService, catalogService, cfg.Import.MaxUploadBytes)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	api := r.Group("/api")
	{
		// Product routes
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/slug/:slug", productHandler.GetProductBySlug)
			products.GET("/:id", productHandler.GetProduct)
		}

		api.GET("/categories", catalogHandler.GetCategories)
		api.GET("/team", catalogHandler.GetTeam)

		// Enquiries are create-only for visitors
		api.POST("/enquiries",
			middleware.EnquiryRateLimit(cfg.Server.EnquiryRate, cfg.Server.EnquiryBurst),
			enquiryHandler.CreateEnquiry)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AdminKeyRequired(cfg.Admin.APIKey))
		{
			imports := admin.Group("/imports")
			{
				imports.POST("", middleware.UploadRateLimit(), adminHandler.CreateImport)
				imports.GET("", adminHandler.GetImports)
				imports.GET("/:id", adminHandler.GetImport)
			}

			admin.GET("/enquiries", enquiryHandler.GetEnquiries)
			admin.POST("/team", adminHandler.CreateTeamMember)

			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
			admin.DELETE("/subcategories/:id", adminHandler.DeleteSubcategory)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)
		}
	}

	return r
}
