package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rentals/api/internal/logger"
	"github.com/stwalsh4118/rentals/api/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/properties/7", nil)

	c.Set("logger", logger.Nop())
	c.Set(middleware.RequestIDKey, "req-123")

	return c, w
}

func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response), "Failed to parse error response JSON")
	return response
}

func TestNotFound(t *testing.T) {
	c, w := setupTestContext()

	NotFound(c, "Property not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Equal(t, "Property not found", response.Error.Message)
	assert.Equal(t, "req-123", response.Error.RequestID)
	assert.Nil(t, response.Error.Details)
}

func TestBadRequest(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid property ID", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrBadRequest, response.Error.Code)
		assert.Equal(t, "Invalid property ID", response.Error.Message)
		assert.Nil(t, response.Error.Details)
	})

	t.Run("with details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid query parameter", map[string]interface{}{
			"param": "priceMin",
			"value": "cheap",
		})

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrBadRequest, response.Error.Code)
		assert.Equal(t, "priceMin", response.Error.Details["param"])
		assert.Equal(t, "cheap", response.Error.Details["value"])
	})
}

func TestInternalServerError(t *testing.T) {
	t.Run("appends cause to message", func(t *testing.T) {
		c, w := setupTestContext()

		InternalServerError(c, "Error retrieving properties", errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrInternalServer, response.Error.Code)
		assert.Equal(t, "Error retrieving properties: connection refused", response.Error.Message)
		assert.Equal(t, "req-123", response.Error.RequestID)
	})

	t.Run("nil cause", func(t *testing.T) {
		c, w := setupTestContext()

		InternalServerError(c, "Error creating property", nil)

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, "Error creating property", response.Error.Message)
	})
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext()

	type form struct {
		Name          string  `validate:"required"`
		PricePerMonth float64 `validate:"gte=0"`
	}

	err := validator.New().Struct(form{PricePerMonth: -5})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "This field is required", response.Error.Details["Name"])
	assert.Equal(t, "Must be greater than or equal to 0", response.Error.Details["PricePerMonth"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag      string
		param    string
		expected string
	}{
		{"required", "", "This field is required"},
		{"min", "1", "Value is too short or small (minimum: 1)"},
		{"max", "100", "Value is too long or large (maximum: 100)"},
		{"gt", "0", "Must be greater than 0"},
		{"gte", "0", "Must be greater than or equal to 0"},
		{"lte", "50", "Must be less than or equal to 50"},
		{"oneof", "Apartment Villa", "Must be one of: Apartment Villa"},
		{"iso3166_1_alpha2", "", "Must be a two-letter country code"},
		{"unknown_tag", "", "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param}))
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/properties/7", nil)

	NotFound(c, "Property not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
