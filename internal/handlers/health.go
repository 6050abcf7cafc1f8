package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"photobooth-backend/internal/models"
)

// HealthHandler reports liveness. It does not touch the database.
func HealthHandler(c *gin.Context) {
	response := models.HealthResponse{
		Status:  "ok",
		Service: "photobooth-backend",
	}
	c.JSON(http.StatusOK, response)
}
