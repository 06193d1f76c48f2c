package response

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBindOptionalJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type reasonBody struct {
		Reason string `json:"reason" binding:"max=10"`
	}

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"empty body", "", http.StatusOK, ""},
		{"valid", `{"reason":"sick"}`, http.StatusOK, "sick"},
		{"too long", `{"reason":"` + strings.Repeat("x", 11) + `"}`, http.StatusBadRequest, ""},
		{"malformed", `{"reason":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got reasonBody
			r := gin.New()
			r.POST("/", func(c *gin.Context) {
				if !BindOptionalJSON(c, &got) {
					return
				}
				Success(c, http.StatusOK, nil)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.reason, got.Reason)
			} else {
				assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
			}
		})
	}
}
