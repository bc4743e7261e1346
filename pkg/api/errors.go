package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beq-project/beq/pkg/repository"
	"github.com/beq-project/beq/pkg/tools"
)

func errorBody(message string) gin.H {
	return gin.H{"error": message}
}

// writeError maps domain errors onto HTTP statuses. Structured tool errors
// carry their own taxonomy; repository sentinels are classified the same
// way the tool layer classifies them.
func writeError(c *gin.Context, err error) {
	var te *tools.Error
	if errors.As(err, &te) {
		c.JSON(statusForKind(te.Kind), gin.H{
			"error": te.Message,
			"kind":  string(te.Kind),
			"hint":  te.Hint,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, repository.ErrInvalidInput) || repository.IsValidationError(err):
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func statusForKind(kind tools.ErrorKind) int {
	switch kind {
	case tools.KindValidation:
		return http.StatusBadRequest
	case tools.KindNotFound:
		return http.StatusNotFound
	case tools.KindConflict:
		return http.StatusConflict
	case tools.KindAuth:
		return http.StatusUnauthorized
	case tools.KindUpstream:
		return http.StatusBadGateway
	case tools.KindDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
