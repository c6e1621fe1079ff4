package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

func statusFor(err error) int {
	if errors.Is(err, service.ErrRelationNotFound) {
		// removing a relation that does not exist is a bad request, not a missing resource
		return http.StatusBadRequest
	}
	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code", "field", ...details}.
// Internal errors are logged and reported with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	kind := service.KindOf(err)

	if status == http.StatusInternalServerError {
		logging.L().Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error", "code": kind.String()})
		return
	}

	body := gin.H{"error": err.Error(), "code": kind.String()}
	if field := fieldOf(err); field != "" {
		body["field"] = field
	}
	var detailed interface{ Details() map[string]any }
	if errors.As(err, &detailed) {
		for k, v := range detailed.Details() {
			body[k] = v
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func fieldOf(err error) string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	var cerr *service.ConflictError
	if errors.As(err, &cerr) {
		return cerr.Field
	}
	var fielded interface{ Field() string }
	if errors.As(err, &fielded) {
		return fielded.Field()
	}
	return ""
}

// respondBindError reports request decoding and binding-tag failures per field.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describeFieldError(fe)
		}
		body := gin.H{"error": "invalid request", "code": service.KindValidation.String(), "fields": fields}
		if len(verrs) > 0 {
			body["field"] = verrs[0].Field()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type),
			"code":  service.KindValidation.String(),
			"field": typeErr.Field,
		})
		return
	}

	msg := "invalid JSON body"
	if errors.Is(err, io.EOF) {
		msg = "request body is required"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": service.KindValidation.String()})
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	}
	return "failed on " + fe.Tag()
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found", "code": service.KindNotFound.String()})
		return 0, false
	}
	return uint(id), true
}
