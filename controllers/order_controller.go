package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/models"
	"github.com/gin-gonic/gin"
)

// GetAllOrders handles GET /omakase/api/orders - lists all serialized orders
func GetAllOrders(c *gin.Context) {
	orders, err := models.ListOrders(config.GetDB())
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

	data := make([]models.SerializedOrder, 0, len(orders))
	for i := range orders {
		data = append(data, models.SerializeOrder(&orders[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetOrderByID handles GET /omakase/api/order/:id - a single serialized order
func GetOrderByID(c *gin.Context) {
	order, ok := orderFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": models.SerializeOrder(order)})
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	TableNumber *uint  `json:"table_number"`
	Type        string `json:"type"`
}

// CreateOrder handles POST /omakase/api/order - creates a new open order
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	order, err := models.CreateOrder(config.GetDB(), req.TableNumber, req.Type)
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
		// Persistence failure, e.g. a table reference that does not exist
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": models.SerializeOrder(order)})
}

// UpdateOrderRequest represents the request body for a partial order update
type UpdateOrderRequest struct {
	Data models.OrderUpdate `json:"data"`
}

// UpdateOrder handles PATCH /omakase/api/order/:id - applies a partial
// update limited to the allow-listed order fields
func UpdateOrder(c *gin.Context) {
	order, ok := orderFromPath(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
	if err := models.ApplyOrderUpdate(db, order, req.Data); err != nil {
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
				"message": "Failed to update order",
			},
		})
		return
	}

	// Reload line items so the response reflects the stored state
	updated, err := models.GetOrder(db, order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": models.SerializeOrder(updated)})
}

// AddItemRequest represents the request body for adding a menu item to an order
type AddItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
}

// AddToOrder handles PATCH /omakase/api/order/:id/add_item - increments the
// order's quantity of one menu item by 1, creating the line item if needed
func AddToOrder(c *gin.Context) {
	order, ok := orderFromPath(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
	if _, err := models.GetMenuItem(db, req.MenuItemID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MENU_ITEM_NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	if _, err := models.AddItemToOrder(db, order, req.MenuItemID, 1); err != nil {
		if errors.Is(err, models.ErrOrderClosed) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_CLOSED",
					"message": "This order has already been closed",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to add item to order",
			},
		})
		return
	}

	updated, err := models.GetOrder(db, order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"updated_order": models.SerializeOrder(updated)})
}

// orderFromPath loads the order named by the :id path parameter, writing
// the error response itself on failure.
func orderFromPath(c *gin.Context) (*models.Order, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid order id",
			},
		})
		return nil, false
	}

	order, err := models.GetOrder(config.GetDB(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order",
			},
		})
		return nil, false
	}
	return order, true
}
