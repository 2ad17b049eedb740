package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

var (
	chatAddr    string
	chatSession string
	chatUpload  string
	chatTimeout time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running server from the terminal",
	Long: `Open an interactive chat against a running datachat server.

Commands:
  /upload <file.csv>  upload a CSV file into the current session
  /session            print the current session summary
  /delete             delete the current session
  /quit               exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAddr, "addr", "http://localhost:8000", "server base URL")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session id (default: a new random id)")
	chatCmd.Flags().StringVar(&chatUpload, "upload", "", "CSV file to upload before chatting")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 3*time.Minute, "per-request timeout")
}

// chatClient talks to the public HTTP API.
type chatClient struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

func (c *chatClient) upload(ctx context.Context, path string) (*domain.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("session_id", c.sessionID); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("csv_file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var resp domain.UploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload-csv", w.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *chatClient) send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(domain.ChatRequest{SessionID: c.sessionID, Message: message})
	if err != nil {
		return "", err
	}
	var resp domain.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chatbot/message", "application/json", bytes.NewReader(payload), &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *chatClient) summary(ctx context.Context) (*domain.SessionSummary, error) {
	var resp domain.SessionSummary
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+c.sessionID, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *chatClient) remove(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+c.sessionID, "", nil, nil)
}

func (c *chatClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp domain.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("[%d] %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("[%d] %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func runChat(cmd *cobra.Command, args []string) error {
	sessionID := chatSession
	if sessionID == "" {
		sessionID = "cli_" + uuid.New().String()[:8]
	}
	client := &chatClient{
		baseURL:    strings.TrimRight(chatAddr, "/"),
		sessionID:  sessionID,
		httpClient: &http.Client{Timeout: chatTimeout},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s (server %s)\n", sessionID, client.baseURL)

	if chatUpload != "" {
		if err := uploadAndReport(ctx, out, client, chatUpload); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Type a question and press Enter. Commands: /upload <file>, /session, /delete, /quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input = strings.TrimSpace(line)
		}
		if input == "" {
			continue
		}

		switch {
		case input == "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case strings.HasPrefix(input, "/upload "):
			if err := uploadAndReport(ctx, out, client, strings.TrimSpace(strings.TrimPrefix(input, "/upload "))); err != nil {
				fmt.Fprintf(out, "Upload failed: %v\n", err)
			}
		case input == "/session":
			summary, err := client.summary(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "table=%s rows=%d thread=%t\n", summary.TableName, summary.RowCount, summary.HasThread)
		case input == "/delete":
			if err := client.remove(ctx); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Session deleted.")
		default:
			reply, err := client.send(ctx, input)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "\n%s\n\n", reply)
		}
	}
}

func uploadAndReport(ctx context.Context, out io.Writer, client *chatClient, path string) error {
	resp, err := client.upload(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n%s\n\n", resp.Message, resp.DBDescription)
	return nil
}
