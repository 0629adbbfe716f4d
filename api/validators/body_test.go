package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"an@example.com","name":"An"}`))

	var payload samplePayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	require.Equal(t, "an@example.com", payload.Email)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"an@example.com","name":"An","extra":true}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyValidationDetailsUseJSONNames(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email"}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details should map field names to messages")
	require.Equal(t, "must be a valid email", details["email"])
	require.Equal(t, "is required", details["name"])
}
