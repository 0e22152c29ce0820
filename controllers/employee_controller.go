package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/middleware"
	"github.com/Jomkit/Omakase/models"
	"github.com/gin-gonic/gin"
)

// Dashboard handles GET /employees/dashboard - the starting view for
// employees: restaurant name, all orders, and the menu
func Dashboard(c *gin.Context) {
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

	orders, err := models.ListOrders(db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}
	serializedOrders := make([]models.SerializedOrder, 0, len(orders))
	for i := range orders {
		serializedOrders = append(serializedOrders, models.SerializeOrder(&orders[i]))
	}

	items, err := models.ListMenuItems(db)
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
	serializedItems := make([]models.SerializedMenuItem, 0, len(items))
	for i := range items {
		serializedItems = append(serializedItems, serializeMenuItem(&items[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"restaurant_name": restaurant.Name,
			"orders":          serializedOrders,
			"menu_items":      serializedItems,
		},
	})
}

// FullMenu handles GET /employees/full-menu - the menu grouped by meal type
func FullMenu(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    groupMenuByMealType(items),
	})
}

// ListEmployees handles GET /employees/list - all users
func ListEmployees(c *gin.Context) {
	var users []models.User
	err := config.GetDB().Preload("Roles").Preload("Groups").Order("id").Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load users",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
	})
}

// RegisterEmployee handles POST /employees - registers a new employee
// (managers only)
func RegisterEmployee(c *gin.Context) {
	var input models.EmployeeInput
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

	employee, err := models.RegisterEmployee(config.GetDB(), input)
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
				"message": "Failed to register employee",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Employee " + employee.Uname + " successfully added",
		"data":    employee,
	})
}

// DeleteUser handles DELETE /employees/:id - deletes a user by id
// (managers only; deleting your own account is forbidden)
func DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid user id",
			},
		})
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil && actor.ID == uint(id) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SELF_DELETE",
				"message": "You cannot delete your own account",
			},
		})
		return
	}

	if err := models.DeleteUser(config.GetDB(), uint(id)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete user",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Deleted user " + strconv.FormatUint(id, 10),
	})
}

// UpdateRestaurant handles PATCH /employees/restaurant - updates restaurant
// info like name, address, phone number, description (managers only)
func UpdateRestaurant(c *gin.Context) {
	var update models.RestaurantUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
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

	if err := models.ApplyRestaurantUpdate(db, &restaurant, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update restaurant",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Restaurant information updated",
		"data":    restaurant,
	})
}
