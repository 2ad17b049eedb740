package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func TestIngestCommandPrintsSchema(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sales data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,amount\nAlice,10\nBob,20\n"), 0o644))
	storePath := filepath.Join(dir, "out.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ingest", csvPath, "--store", storePath})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		ingestStore = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `Loaded 2 rows into table "sales_data"`)
	assert.Contains(t, out.String(), "sales_data")
	assert.FileExists(t, storePath)
}

func TestChatClientRoundTrip(t *testing.T) {
	var gotUpload, gotChat bool
	mux := http.NewServeMux()
	mux.HandleFunc("/upload-csv", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "s1", r.FormValue("session_id"))
		_, header, err := r.FormFile("csv_file")
		require.NoError(t, err)
		assert.Equal(t, "data.csv", header.Filename)
		gotUpload = true
		json.NewEncoder(w).Encode(domain.UploadResponse{SessionID: "s1", Message: "ok", DBDescription: "desc"})
	})
	mux.HandleFunc("/chatbot/message", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s1", req.SessionID)
		assert.Equal(t, "total?", req.Message)
		gotChat = true
		json.NewEncoder(w).Encode(domain.ChatResponse{Response: "30"})
	})
	mux.HandleFunc("/v1/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(domain.ErrorResponse{Detail: "Session not initialized. Please upload a CSV file first."})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	csvPath := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a\n1\n"), 0o644))

	client := &chatClient{baseURL: server.URL, sessionID: "s1", httpClient: &http.Client{Timeout: 5 * time.Second}}
	ctx := context.Background()

	resp, err := client.upload(ctx, csvPath)
	require.NoError(t, err)
	assert.Equal(t, "desc", resp.DBDescription)

	reply, err := client.send(ctx, "total?")
	require.NoError(t, err)
	assert.Equal(t, "30", reply)

	_, err = client.summary(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "[404] Session not initialized"))

	assert.True(t, gotUpload)
	assert.True(t, gotChat)
}
