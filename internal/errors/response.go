package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse adalah struktur respons error standar
type ErrorResponse struct {
	Error   string `json:"error"`   // kode error (untuk pemetaan di frontend)
	Message string `json:"message"` // pesan untuk pengguna
}

// RespondWithError mengirim respons error standar
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Shortcut untuk respons error yang sering dipakai

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Silakan login terlebih dahulu"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Terjadi kesalahan pada server. Coba lagi nanti"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}
