package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/api/shared"
)

// authedRequest builds a request carrying the authenticated tenant and user
// in its context, with the given chi URL params bound.
func authedRequest(t *testing.T, method, target string, body io.Reader, tenantID, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)

	ctx := req.Context()
	if tenantID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.TenantIDContextKey, tenantID)
	}
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}

	rctx := chi.NewRouteContext()
	for name, value := range params {
		rctx.URLParams.Add(name, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

// publicRequest builds an unauthenticated request with chi URL params bound.
func publicRequest(t *testing.T, method, target string, body io.Reader, params map[string]string) *http.Request {
	t.Helper()
	return authedRequest(t, method, target, body, uuid.Nil, uuid.Nil, params)
}

// multipartBody builds a multipart form with the given fields and one file
// part, returning the body and its content type.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}
