package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponders(t *testing.T) {
	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(c *gin.Context) { RespondWithBadRequest(c, "query is required", nil) }, http.StatusBadRequest, "validation_error"},
		{"not found", func(c *gin.Context) { RespondWithNotFound(c, "Task not found") }, http.StatusNotFound, "not_found"},
		{"too many", func(c *gin.Context) { RespondWithTooManyRequests(c, "slow down", gin.H{"retry_after": 60}) }, http.StatusTooManyRequests, "rate_limited"},
		{"internal", func(c *gin.Context) { RespondWithInternalError(c, "boom", nil) }, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			tt.respond(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.ErrorCode)
			assert.NotEmpty(t, body.Error)
		})
	}
}
