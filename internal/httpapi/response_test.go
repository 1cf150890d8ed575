package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRespondOK(t *testing.T) {
	router := setupRouter()
	router.GET("/test", func(c *gin.Context) {
		RespondOK(c, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("RespondOK() status = %v, want %v", w.Code, http.StatusOK)
	}
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("RespondOK() response status = %v, want ok", response["status"])
	}
}

func TestRespondAccepted(t *testing.T) {
	router := setupRouter()
	router.POST("/test", func(c *gin.Context) {
		RespondAccepted(c, gin.H{"id": "123"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("RespondAccepted() status = %v, want %v", w.Code, http.StatusAccepted)
	}
}

func TestRespondError(t *testing.T) {
	router := setupRouter()
	router.GET("/test", func(c *gin.Context) {
		RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("RespondError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Error != ErrCodeBadRequest {
		t.Errorf("RespondError() code = %v, want %v", response.Error, ErrCodeBadRequest)
	}
	if response.Message != "Invalid request" {
		t.Errorf("RespondError() message = %v, want Invalid request", response.Message)
	}
}

func TestRespondHelpers(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantCode   ErrorCode
	}{
		{
			name:       "bad request",
			handler:    func(c *gin.Context) { RespondBadRequest(c, "bad") },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "unauthorized",
			handler:    func(c *gin.Context) { RespondUnauthorized(c, "no") },
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeUnauthorized,
		},
		{
			name:       "not found",
			handler:    func(c *gin.Context) { RespondNotFound(c, "missing") },
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "conflict",
			handler:    func(c *gin.Context) { RespondConflict(c, ErrCodeAmbiguousAsset, "ambiguous") },
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeAmbiguousAsset,
		},
		{
			name:       "internal error",
			handler:    func(c *gin.Context) { RespondInternalError(c, "boom") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
		{
			name:       "validation error",
			handler:    func(c *gin.Context) { RespondValidationError(c, "invalid") },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter()
			router.GET("/test", tt.handler)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/test", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if response.Error != tt.wantCode {
				t.Errorf("code = %v, want %v", response.Error, tt.wantCode)
			}
		})
	}
}
