package handler

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

// Fail attaches err for the error middleware and writes the error response.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	httputil.RespondWithError(c, err)
}

// BindJSON decodes the body into obj. A value of the wrong type is keyed by
// its field; any other malformed body becomes a validation error keyed
// "body". Field rules are checked later by the services.
func BindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field, _, _ := strings.Cut(typeErr.Field, ".")
		message := "Must be a " + typeErr.Type.String()
		if typeErr.Type.Kind() == reflect.Bool {
			message = "Must be true or false"
		}
		return errors.Validation(map[string]string{field: message})
	}
	return errors.Validation(map[string]string{"body": "Request body must be valid JSON"})
}
