package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var fieldNamesOnce sync.Once

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes and validates the request body into dst. The body must hold
// exactly one JSON value; anything after it is rejected.
func bindJSON(c *gin.Context, dst any) *APIError {
	body, err := c.GetRawData()
	if err != nil {
		return errBadRequest("Request body could not be read", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errBadRequest(describeBindError(io.EOF), io.EOF)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errBadRequest(describeBindError(err), err)
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return errBadRequest(describeBindError(err), err)
	}
	return nil
}

func describeBindError(err error) string {
	var (
		fieldErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return fmt.Sprintf("Missing required field: %s", fe.Field())
		}
		return fmt.Sprintf("Invalid value for field: %s", fe.Field())
	case errors.Is(err, io.EOF):
		return "Request body must not be empty"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "Request body is not valid JSON"
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return "Request body must be a JSON object"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Invalid type for field %s: expected %s", typeErr.Field, typeErr.Type)
	default:
		return "Malformed request body"
	}
}
