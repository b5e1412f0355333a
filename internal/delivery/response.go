package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

type Response struct {
	Status    string      `json:"Status"`
	Message   string      `json:"Message"`
	ErrorCode string      `json:"ErrorCode,omitempty"`
	Data      interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// failWithError writes the envelope for a usecase error. Internal causes are logged, never sent.
func failWithError(c *gin.Context, log *logrus.Logger, action string, err error) {
	statusCode := mapErrorToStatus(err)
	if statusCode >= http.StatusInternalServerError {
		log.Errorf("Handler: %s failed: %v", action, err)
	} else {
		log.Warnf("Handler: %s rejected: %v", action, err)
	}
	c.JSON(statusCode, Response{
		Status:    "Fail",
		Message:   domain.MessageOf(err),
		ErrorCode: domain.CodeOf(err),
	})
}

func mapErrorToStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindItemNotFound, domain.KindPaymentMismatch, domain.KindInvalidStatus:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindSessionNotFound, domain.KindOrderNotFound:
		return http.StatusNotFound
	case domain.KindSessionExpired:
		return http.StatusGone
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
