package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// respondError writes a {code, message} failure body. AppErrors pick their
// own HTTP status; anything else is reported as a 500 without leaking the
// underlying error text.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if appErr.Code == apperrors.ErrCodeInternal {
			slog.Error("Request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(appErr.HTTPStatus(), gin.H{"code": appErr.Code, "message": appErr.Message})
		return
	}
	slog.Error("Request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    apperrors.ErrCodeInternal,
		"message": "internal server error",
	})
}

// currentUserID pulls the authenticated user's ID set by the JWT middleware
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"code": apperrors.ErrCodeUnauthorized, "message": "authentication required"})
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": apperrors.ErrCodeUnauthorized, "message": "invalid token subject"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses the named path parameter as an ObjectID
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.ErrCodeValidation, "message": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}
