package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/models"
	"github.com/Jomkit/Omakase/services"
	"github.com/gin-gonic/gin"
)

// GetMenuItem handles GET /omakase/api/menu/:id - a single serialized menu item
func GetMenuItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid menu item id",
			},
		})
		return
	}

	item, err := models.GetMenuItem(config.GetDB(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MENU_ITEM_NOT_FOUND",
					"message": "Menu item not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load menu item",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": serializeMenuItem(item)})
}

// ListMenuItems handles GET /omakase/api/menu/list_menu_items - all
// serialized menu items
func ListMenuItems(c *gin.Context) {
	items, err := models.ListMenuItems(config.GetDB())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load menu",
			},
		})
		return
	}

	data := make([]models.SerializedMenuItem, 0, len(items))
	for i := range items {
		data = append(data, serializeMenuItem(&items[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// AddMenuItem handles POST /employees/menu-items - creates a menu item with
// its ingredient and intolerant lists (employees only)
func AddMenuItem(c *gin.Context) {
	var input models.MenuItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var restaurant models.Restaurant
	if err := db.First(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load restaurant",
			},
		})
		return
	}

	item, err := models.AddMenuItem(db, &restaurant, input)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create menu item",
			},
		})
		return
	}

	// Reload to include the resolved vocabularies
	created, err := models.GetMenuItem(db, item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load menu item details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Added " + created.Name + "!",
		"data":    serializeMenuItem(created),
	})
}

// UploadMenuItemImage handles POST /employees/menu-items/:id/image - uploads
// a photo for a menu item (employees only)
func UploadMenuItemImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid menu item id",
			},
		})
		return
	}

	db := config.GetDB()
	item, err := models.GetMenuItem(db, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "Image storage not configured",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "No image file provided",
			},
		})
		return
	}

	s3Key, err := imageService.UploadImage(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// Replace any previous photo
	oldKey := item.ImageS3Key
	if err := db.Model(item).Update("image_s3_key", s3Key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save image reference",
			},
		})
		return
	}
	if oldKey != nil {
		if err := imageService.DeleteImage(*oldKey); err != nil {
			log.Printf("failed to delete previous image %s: %v", *oldKey, err)
		}
	}

	item.ImageS3Key = &s3Key
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    serializeMenuItem(item),
	})
}

// serializeMenuItem produces the transport record, resolving an uploaded
// photo to a presigned URL when one exists.
func serializeMenuItem(item *models.MenuItem) models.SerializedMenuItem {
	data := models.SerializeMenuItem(item)

	if item.ImageS3Key != nil {
		if imageService := services.GetImageService(); imageService != nil {
			url, err := imageService.GetImageURL(*item.ImageS3Key)
			if err != nil {
				log.Printf("failed to resolve image URL for menu item %d: %v", item.ID, err)
			} else if url != "" {
				data.Image = url
			}
		}
	}

	return data
}

// groupMenuByMealType buckets serialized menu items by their meal type for
// the order screen.
func groupMenuByMealType(items []models.MenuItem) map[string][]models.SerializedMenuItem {
	grouped := make(map[string][]models.SerializedMenuItem)
	for i := range items {
		item := &items[i]
		grouped[item.MealType] = append(grouped[item.MealType], serializeMenuItem(item))
	}
	return grouped
}
