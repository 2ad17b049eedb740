package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/service"
	"github.com/xiaot623/gogo/datachat/internal/session"
	"github.com/xiaot623/gogo/datachat/internal/sqlexec"
	"github.com/xiaot623/gogo/datachat/internal/tools"
	"github.com/xiaot623/gogo/datachat/tests/helpers"
)

const salesCSV = "name,amount\nAlice,10\nBob,20\n"

func newTestServer(t *testing.T, client assistant.AssistantClient, runTimeout time.Duration) *echo.Echo {
	t.Helper()
	return newTestServerWith(t, client, func(cfg *config.Config) { cfg.RunTimeout = runTimeout })
}

// newTestServerWith lets a test adjust the config after the directories exist.
func newTestServerWith(t *testing.T, client assistant.AssistantClient, adjust func(*config.Config)) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StorageDir:      filepath.Join(dir, "db_storage"),
		UploadsDir:      filepath.Join(dir, "csv_uploads"),
		MaxUploadBytes:  1 << 20,
		AssistantID:     config.MockAssistantID,
		AnalyzerModel:   "mock",
		RunPollInterval: time.Millisecond,
		RunTimeout:      time.Second,
	}
	require.NoError(t, cfg.EnsureDirs())
	adjust(cfg)

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	registry := tools.NewRegistry()
	require.NoError(t, tools.RegisterBuiltins(registry, sqlexec.New(engine, nil)))

	svc := service.New(helpers.NewTestSQLiteStore(t), session.NewRegistry(nil), client, llm.NewMockClient(), registry, cfg, nil)
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, sessionID, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if sessionID != "" {
		require.NoError(t, w.WriteField("session_id", sessionID))
	}
	if filename != "" {
		part, err := w.CreateFormFile("csv_file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func chatRequest(sessionID, message string) *http.Request {
	body, _ := json.Marshal(domain.ChatRequest{SessionID: sessionID, Message: message})
	req := httptest.NewRequest(http.MethodPost, "/chatbot/message", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Nuralance Operational"}`, rec.Body.String())
}

func TestUploadAndChat(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), 5*time.Second)

	rec := serve(e, uploadRequest(t, "s1", "sales.csv", salesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upload domain.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.Equal(t, "s1", upload.SessionID)
	assert.Equal(t, service.UploadSuccessMessage, upload.Message)
	assert.NotEmpty(t, upload.DBDescription)

	rec = serve(e, chatRequest("s1", "How many rows are there?"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, `[MOCK] The query returned: [{"row_count":2}]`, chat.Response)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var messages struct {
		Messages []domain.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages.Messages, 2)
	assert.Equal(t, "user", messages.Messages[0].Role)
	assert.Equal(t, "assistant", messages.Messages[1].Role)
	assert.False(t, messages.HasMore)

	runID := messages.Messages[1].RunID
	require.NotEmpty(t, runID)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/events?types=tool_request,tool_result", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events struct {
		Events []domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events.Events, 2)
	assert.Equal(t, domain.EventTypeToolRequest, events.Events[0].Type)
	assert.Equal(t, domain.EventTypeToolResult, events.Events[1].Type)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/tool_calls", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run_sql_query")
}

func TestUploadRejectsBadInput(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	tests := []struct {
		name      string
		sessionID string
		filename  string
		detail    string
	}{
		{"non-csv file", "s1", "sales.txt", "Invalid file type. Please upload a CSV file."},
		{"missing session", "", "sales.csv", "session_id is required"},
		{"missing file", "s1", "", "csv_file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, uploadRequest(t, tt.sessionID, tt.filename, salesCSV))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, rec))
		})
	}
}

func TestUploadUnsafeSessionID(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	rec := serve(e, uploadRequest(t, "../etc", "sales.csv", salesCSV))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "session_id")
}

func TestUploadProcessingFailure(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	rec := serve(e, uploadRequest(t, "s1", "empty.csv", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decodeDetail(t, rec), "Failed to process CSV file: "))
}

func TestUploadFailureHidesServerPaths(t *testing.T) {
	var uploadsDir, storageDir string
	e := newTestServerWith(t, assistant.NewMockClient(), func(cfg *config.Config) {
		cfg.UploadsDir = filepath.Join(cfg.UploadsDir, "missing", "dir")
		uploadsDir, storageDir = cfg.UploadsDir, cfg.StorageDir
	})

	rec := serve(e, uploadRequest(t, "s1", "sales.csv", salesCSV))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeDetail(t, rec)
	assert.True(t, strings.HasPrefix(detail, "Failed to process CSV file: "))
	assert.Contains(t, detail, "s1.csv")
	assert.NotContains(t, detail, uploadsDir)
	assert.NotContains(t, detail, storageDir)
	assert.NotContains(t, detail, filepath.Dir(storageDir))
}

func TestChatUnknownSession(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	rec := serve(e, chatRequest("missing", "hello"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not initialized. Please upload a CSV file first.", decodeDetail(t, rec))
}

func TestChatEmptyMessage(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	rec := serve(e, chatRequest("s1", "   "))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// stalledAssistant never lets a run settle.
type stalledAssistant struct {
	*assistant.MockClient
}

func (s stalledAssistant) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: domain.RunStatusInProgress}, nil
}

func TestChatRunTimeout(t *testing.T) {
	e := newTestServer(t, stalledAssistant{assistant.NewMockClient()}, 30*time.Millisecond)

	require.Equal(t, http.StatusOK, serve(e, uploadRequest(t, "s1", "sales.csv", salesCSV)).Code)

	rec := serve(e, chatRequest("s1", "hello"))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, detailRunTimeout, decodeDetail(t, rec))
}

// failingAssistant fails every run.
type failingAssistant struct {
	*assistant.MockClient
}

func (f failingAssistant) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	return &assistant.Run{
		ID:        runID,
		ThreadID:  threadID,
		Status:    domain.RunStatusFailed,
		LastError: &assistant.RunError{Code: "server_error", Message: "rate limited"},
	}, nil
}

func TestChatRunFailed(t *testing.T) {
	e := newTestServer(t, failingAssistant{assistant.NewMockClient()}, time.Second)

	require.Equal(t, http.StatusOK, serve(e, uploadRequest(t, "s1", "sales.csv", salesCSV)).Code)

	rec := serve(e, chatRequest("s1", "hello"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Assistant run failed: rate limited", decodeDetail(t, rec))
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestServer(t, assistant.NewMockClient(), time.Second)

	require.Equal(t, http.StatusOK, serve(e, uploadRequest(t, "s1", "sales.csv", salesCSV)).Code)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db_storage")
	var summary domain.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "sales", summary.TableName)
	assert.Equal(t, 2, summary.RowCount)
	assert.False(t, summary.HasThread)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"s1"`)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, chatRequest("s1", "hello"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.EventTypeSessionDeleted))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a, b,,"))
	assert.Nil(t, splitList(" , "))
}
