package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleHealth reports liveness and the retrieval mode chosen at startup.
func HandleHealth(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"mode":      mode,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
