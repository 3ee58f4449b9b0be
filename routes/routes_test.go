package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/pdftest"
	"pdf-rag-service/internal/vectorstore"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type echoCompleter struct {
	calls int
}

func (e *echoCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	e.calls++
	return userPrompt, nil
}

type failingCompleter struct{}

func (failingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", ai.ErrCircuitOpen
}

func newTestRouter(t *testing.T, completer ai.Completer) *gin.Engine {
	cfg := &config.Config{MaxFileSize: 1 << 20}
	corpus := services.NewCorpusStore(filepath.Join(t.TempDir(), "corpus.json.gz"))
	docs := services.NewDocumentService(
		services.NewPDFExtractor(),
		services.NewChunker(services.DefaultChunkSize, services.DefaultChunkOverlap),
		services.NewFallbackRetriever(corpus),
		services.NewAnswerGenerator(completer),
		nil,
	)

	router := gin.New()
	SetupHealthRoutes(router, docs)
	SetupDocumentRoutes(router, cfg, docs)
	return router
}

func uploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func askRequest(query string) *http.Request {
	body, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(t, &echoCompleter{})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"fallback"`)
}

func TestExtractThenAsk(t *testing.T) {
	completer := &echoCompleter{}
	router := newTestRouter(t, completer)

	w := serve(router, uploadRequest(t, "/extract", "file", "q3.pdf", pdftest.Build("Revenue grew 20%")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var extract struct {
		Chunks  []string `json:"chunks"`
		Message string   `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &extract))
	assert.Equal(t, []string{"Revenue grew 20%"}, extract.Chunks)
	assert.NotEmpty(t, extract.Message)

	w = serve(router, askRequest("What was revenue growth?"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ask struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ask))
	assert.Contains(t, ask.Answer, "Revenue grew 20%")
	assert.Equal(t, 1, completer.calls)
}

func TestAskWithoutUpload(t *testing.T) {
	completer := &echoCompleter{}
	router := newTestRouter(t, completer)

	w := serve(router, askRequest("anything?"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"answer":%q}`, services.NoContentAnswer), w.Body.String())
	assert.Zero(t, completer.calls)
}

func TestChatAliasesAsk(t *testing.T) {
	router := newTestRouter(t, &echoCompleter{})

	req := askRequest("anything?")
	req.URL.Path = "/chat"
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAskValidation(t *testing.T) {
	router := newTestRouter(t, &echoCompleter{})

	for name, body := range map[string]string{
		"empty query":   `{"query": "  "}`,
		"missing query": `{}`,
		"bad json":      `{"query":`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(router, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation_error", decodeError(t, w).ErrorCode)
		})
	}
}

func TestExtractErrors(t *testing.T) {
	router := newTestRouter(t, &echoCompleter{})

	w := serve(router, uploadRequest(t, "/extract", "file", "notes.txt", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).ErrorCode)

	w = serve(router, uploadRequest(t, "/extract", "document", "a.pdf", pdftest.Build("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, uploadRequest(t, "/extract", "file", "broken.pdf", []byte("%PDF-1.4 garbage")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "extraction_error", resp.ErrorCode)
	assert.NotEmpty(t, resp.Error)
}

func TestAskProviderFailure(t *testing.T) {
	router := newTestRouter(t, failingCompleter{})

	w := serve(router, uploadRequest(t, "/extract", "file", "a.pdf", pdftest.Build("Revenue grew 20%")))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, askRequest("revenue"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "provider_error", decodeError(t, w).ErrorCode)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", services.ErrValidation), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("x: %w", services.ErrExtraction), http.StatusUnprocessableEntity, "extraction_error"},
		{&services.ChunkEmbedError{Index: 2, Err: errors.New("boom")}, http.StatusBadGateway, "provider_error"},
		{fmt.Errorf("x: %w", vectorstore.ErrStoreUnavailable), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
