package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/middleware"
	"github.com/Jomkit/Omakase/models"
	"github.com/Jomkit/Omakase/services"
	"github.com/gin-gonic/gin"
)

// RedirectIfOrderActive sends customers who already have an open order
// straight to the order screen; at most one order may be in flight per
// session.
func RedirectIfOrderActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.GetSession(c)
		if _, ok := session.GetUint(middleware.SessionKeyCurrentOrderID); ok {
			c.Redirect(http.StatusFound, "/order")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectEmployees sends logged-in employees to their dashboard instead of
// the customer screens.
func RedirectEmployees() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user != nil && user.InGroup(models.GroupEmployee) {
			c.Redirect(http.StatusFound, "/employees/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// LandingPage handles GET / - the customer entry point
func LandingPage(c *gin.Context) {
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

	session := middleware.GetSession(c)
	session.SetUint(middleware.SessionKeyRestaurantID, restaurant.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    restaurant,
	})
}

// SelectTablePage handles GET /dine-in/select-table - lists the tables
// currently free for seating
func SelectTablePage(c *gin.Context) {
	tables, err := models.ListFreeTables(config.GetDB())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tables,
	})
}

// SelectTableRequest represents the request body for choosing a table
type SelectTableRequest struct {
	TableNumber uint `json:"table_number" binding:"required"`
}

// SelectTable handles POST /dine-in/select-table - assigns the table and
// opens a Dining In order bound to it
func SelectTable(c *gin.Context) {
	var req SelectTableRequest
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
	order, err := models.StartDineInOrder(db, req.TableNumber)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TABLE_NOT_FOUND",
					"message": "No such table",
				},
			})
		case errors.Is(err, models.ErrTableUnavailable):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TABLE_UNAVAILABLE",
					"message": "Table no longer available",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to start order",
				},
			})
		}
		return
	}

	session := middleware.GetSession(c)
	session.SetUint(middleware.SessionKeyCurrentOrderID, order.ID)
	session.SetUint(middleware.SessionKeyCurrTableNum, *order.TableNumber)

	services.PublishOrderEventAsync(services.NewOrderEvent(services.EventOrderOpened, order))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Table assigned, enjoy your meal!",
		"data":    models.SerializeOrder(order),
	})
}

// TakeoutContactForm handles POST /takeout/contact-form
func TakeoutContactForm(c *gin.Context) {
	contactForm(c, models.OrderTypeTakeout)
}

// DeliveryContactForm handles POST /delivery/contact-form
func DeliveryContactForm(c *gin.Context) {
	contactForm(c, models.OrderTypeDelivery)
}

// contactForm registers a temp customer from contact info and opens an
// order of the given type for them.
func contactForm(c *gin.Context, orderType string) {
	var req models.CustomerInput
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
	customer, err := models.RegisterCustomer(db, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to register customer",
			},
		})
		return
	}

	order, err := models.CreateOrder(db, nil, orderType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}
	if err := db.Model(order).Association("Customers").Append(customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to attach customer to order",
			},
		})
		return
	}

	session := middleware.GetSession(c)
	session.SetUint(middleware.SessionKeyCurrentOrderID, order.ID)
	session.SetUint(middleware.SessionKeyTempCustomerID, customer.ID)

	services.PublishOrderEventAsync(services.NewOrderEvent(services.EventOrderOpened, order))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "We're pleased to take your order, " + customer.Name + "!",
		"data":    models.SerializeOrder(order),
	})
}

// OrderPage handles GET /order - the menu grouped by meal type plus the
// running line-item list for the active order
func OrderPage(c *gin.Context) {
	session := middleware.GetSession(c)
	orderID, ok := session.GetUint(middleware.SessionKeyCurrentOrderID)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}

	db := config.GetDB()
	order, err := models.GetOrder(db, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	// The landing page pins the restaurant the customer is ordering from;
	// only that restaurant's dishes are offered
	var items []models.MenuItem
	if restaurantID, ok := session.GetUint(middleware.SessionKeyRestaurantID); ok {
		items, err = models.RestaurantMenu(db, restaurantID)
	} else {
		items, err = models.ListMenuItems(db)
	}
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
		"data": gin.H{
			"menu":  groupMenuByMealType(items),
			"order": models.SerializeOrder(order),
		},
	})
}

// CheckoutPage handles GET /checkout - the current order with its total
func CheckoutPage(c *gin.Context) {
	order, ok := currentOrder(c)
	if !ok {
		return
	}

	total, err := models.TotalCost(config.GetDB(), order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to compute total",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":      models.SerializeOrder(order),
			"total_cost": total.StringFixed(2),
		},
	})
}

// PaymentRequest represents the request body for selecting a payment method
type PaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// Payment handles POST /payment - sets the payment method for the active order
func Payment(c *gin.Context) {
	var req PaymentRequest
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

	order, ok := currentOrder(c)
	if !ok {
		return
	}

	if err := models.SetPaymentMethod(config.GetDB(), order, req.PaymentMethod); err != nil {
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
				"message": "Failed to set payment method",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment method recorded",
	})
}

// ThankYouPage handles GET /thank-you - closes the active order, frees the
// table, and clears the session markers. Arriving from anywhere but the
// payment screen redirects to the landing page.
func ThankYouPage(c *gin.Context) {
	referrer := c.Request.Referer()
	if !strings.HasSuffix(strings.TrimSuffix(referrer, "/"), "/payment") {
		c.Redirect(http.StatusFound, "/")
		return
	}

	session := middleware.GetSession(c)
	orderID, ok := session.GetUint(middleware.SessionKeyCurrentOrderID)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}

	db := config.GetDB()

	order, err := models.GetOrder(db, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}
	if err := models.CloseOrder(db, order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to close order",
			},
		})
		return
	}
	session.Pop(middleware.SessionKeyCurrentOrderID)

	// The order closes before its table is released
	if tableNumber, ok := session.GetUint(middleware.SessionKeyCurrTableNum); ok {
		if err := models.FreeTable(db, tableNumber); err != nil && !errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to free table",
				},
			})
			return
		}
		session.Pop(middleware.SessionKeyCurrTableNum)
	}

	// The temp customer row itself is kept for order history
	session.Pop(middleware.SessionKeyTempCustomerID)

	services.PublishOrderEventAsync(services.NewOrderEvent(services.EventOrderClosed, order))

	payMethod := ""
	if order.PaymentMethod != nil {
		payMethod = *order.PaymentMethod
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thank you for dining with us!",
		"data": gin.H{
			"pay_method": payMethod,
		},
	})
}

// TableQRCode handles GET /tables/:id/qrcode - a PNG QR code linking the
// physical table to the dine-in flow
func TableQRCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid table id",
			},
		})
		return
	}

	db := config.GetDB()
	var table models.Table
	if err := db.First(&table, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "No such table",
			},
		})
		return
	}

	qrService := services.GetQRCodeService()
	if qrService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "QR code service not configured",
			},
		})
		return
	}

	png, err := qrService.TableQRCode(table.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QRCODE_ERROR",
				"message": "Failed to generate QR code",
			},
		})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// currentOrder loads the session's active order, writing the error response
// itself when there is none.
func currentOrder(c *gin.Context) (*models.Order, bool) {
	session := middleware.GetSession(c)
	orderID, ok := session.GetUint(middleware.SessionKeyCurrentOrderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_ACTIVE_ORDER",
				"message": "No order in progress",
			},
		})
		return nil, false
	}

	order, err := models.GetOrder(config.GetDB(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return nil, false
	}
	return order, true
}
