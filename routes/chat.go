package routes

import (
	"fmt"
	"net/http"

	"pdf-rag-service/models"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"

	"github.com/gin-gonic/gin"
)

// HandleAsk answers a question from the indexed document content.
func HandleAsk(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithServiceError(c, fmt.Errorf("%w: invalid JSON body: %v", services.ErrValidation, err))
			return
		}

		ctx, cancel := utils.WithAskTimeout(c.Request.Context())
		defer cancel()

		answer, err := docs.Ask(ctx, req.Query)
		if err != nil {
			respondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AskResponse{Answer: answer})
	}
}
