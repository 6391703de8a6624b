package pdftext

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-1.4", string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Total de plata: 120,50 RON","pages":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "k1", time.Second, zap.NewNop())
	text, err := client.ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Total de plata: 120,50 RON", text)
}

func TestExtractTextErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"encrypted pdf"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, zap.NewNop())
	_, err := client.ExtractText(context.Background(), []byte("x"))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "encrypted pdf", apiErr.Message)
}

func TestExtractTextMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pages":0}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", time.Second, zap.NewNop()).ExtractText(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "no text")
}
