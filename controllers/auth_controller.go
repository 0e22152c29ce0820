package controllers

import (
	"errors"
	"net/http"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/middleware"
	"github.com/Jomkit/Omakase/models"
	"github.com/gin-gonic/gin"
)

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /login - authenticates an employee and starts a session
func Login(c *gin.Context) {
	var req LoginRequest
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
	user, err := models.Authenticate(db, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CREDENTIALS",
					"message": "User credentials incorrect, check username and password",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to authenticate",
			},
		})
		return
	}

	session := middleware.GetSession(c)
	session.SetUint(middleware.SessionKeyUserID, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome back " + user.Uname,
		"data":    user,
	})
}

// Logout handles POST /logout - ends the current session
func Logout(c *gin.Context) {
	session := middleware.GetSession(c)
	session.Pop(middleware.SessionKeyUserID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out",
	})
}
