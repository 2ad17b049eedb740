package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/ingest"
	"github.com/xiaot623/gogo/datachat/internal/prompt"
	"github.com/xiaot623/gogo/datachat/internal/schema"
)

// UploadSuccessMessage is returned with every successful upload.
const UploadSuccessMessage = "CSV file processed successfully! Your data is ready."

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateSessionID reports whether id can name session files on disk.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: session_id must be 1-128 characters of letters, digits, '.', '_' or '-'", domain.ErrInvalidRequest)
	}
	return nil
}

// IsCSVFilename reports whether filename carries a .csv extension.
func IsCSVFilename(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

// Upload turns a CSV stream into a ready session: it saves the raw file,
// loads it into the session store, describes the schema and synthesizes the
// system prompt. Any existing session with the same id is replaced.
func (s *Service) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*domain.UploadResponse, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if !IsCSVFilename(filename) {
		return nil, domain.ErrInvalidFileType
	}

	uploadPath := filepath.Join(s.config.UploadsDir, sessionID+".csv")
	storePath := filepath.Join(s.config.StorageDir, sessionID+".db")
	table := ingest.TableName(filename)

	// A re-upload must not chat against a half-replaced store.
	s.sessions.Delete(sessionID)

	sess, fallback, err := s.buildSession(ctx, sessionID, table, uploadPath, storePath, r)
	if err != nil {
		s.removeQuietly(uploadPath)
		s.removeQuietly(storePath)
		s.logger.Error("upload failed",
			zap.String("session_id", sessionID),
			zap.String("filename", filename),
			zap.Error(err))
		return nil, s.withoutPaths(err)
	}

	sess = s.sessions.Put(sess)

	metadata, _ := json.Marshal(map[string]any{"row_count": sess.RowCount, "fallback_prompt": fallback})
	if err := s.store.UpsertSession(ctx, &domain.SessionRecord{
		SessionID: sess.SessionID,
		TableName: sess.TableName,
		CreatedAt: sess.CreatedAt,
		Metadata:  metadata,
	}); err != nil {
		s.logger.Warn("failed to journal session", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.journalEvent(ctx, sessionID, "", domain.EventTypeSessionCreated, domain.SessionCreatedPayload{
		SessionID: sessionID,
		TableName: sess.TableName,
		RowCount:  sess.RowCount,
		Fallback:  fallback,
	})

	s.logger.Info("session initialized",
		zap.String("session_id", sessionID),
		zap.String("table", sess.TableName),
		zap.Int("rows", sess.RowCount),
		zap.Bool("fallback_prompt", fallback))

	return &domain.UploadResponse{
		SessionID:     sessionID,
		Message:       UploadSuccessMessage,
		DBDescription: prompt.Preview(sess.SystemPrompt),
	}, nil
}

func (s *Service) buildSession(ctx context.Context, sessionID, table, uploadPath, storePath string, r io.Reader) (domain.Session, bool, error) {
	if err := saveUpload(uploadPath, r, s.config.MaxUploadBytes); err != nil {
		return domain.Session{}, false, err
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("failed to reopen upload: %w", err)
	}
	defer f.Close()

	// Stale stores from an earlier upload would keep their other tables.
	s.removeQuietly(storePath)
	loaded, err := ingest.LoadCSV(ctx, f, storePath, table)
	if err != nil {
		return domain.Session{}, false, err
	}

	schemaText, err := schema.Describe(ctx, storePath)
	if err != nil {
		return domain.Session{}, false, err
	}

	synthesizer := prompt.NewSynthesizer(&journaledLLM{svc: s, sessionID: sessionID}, s.config.AnalyzerModel, s.logger)
	systemPrompt, fallback := synthesizer.Synthesize(ctx, schemaText, schema.FirstTable(ctx, storePath))

	return domain.Session{
		SessionID:    sessionID,
		TableName:    loaded.Table,
		StorePath:    storePath,
		UploadPath:   uploadPath,
		SystemPrompt: systemPrompt,
		RowCount:     loaded.Rows,
		CreatedAt:    time.Now(),
	}, fallback, nil
}

func saveUpload(path string, r io.Reader, maxBytes int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	defer f.Close()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		return fmt.Errorf("upload exceeds the %d byte limit", maxBytes)
	}
	return f.Close()
}

// pathFreeError keeps the wrapped chain of an error whose text had server
// paths stripped.
type pathFreeError struct {
	msg string
	err error
}

func (e *pathFreeError) Error() string { return e.msg }
func (e *pathFreeError) Unwrap() error { return e.err }

// withoutPaths rewrites err so its text names no server directory. File
// paths are reduced to their base name.
func (s *Service) withoutPaths(err error) error {
	msg := err.Error()

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path != "" {
		msg = strings.ReplaceAll(msg, pathErr.Path, filepath.Base(pathErr.Path))
	}
	for _, dir := range []string{s.config.StorageDir, s.config.UploadsDir} {
		if dir == "" {
			continue
		}
		if abs, absErr := filepath.Abs(dir); absErr == nil {
			msg = strings.ReplaceAll(msg, abs+string(filepath.Separator), "")
		}
		msg = strings.ReplaceAll(msg, filepath.Clean(dir)+string(filepath.Separator), "")
	}

	if msg == err.Error() {
		return err
	}
	return &pathFreeError{msg: msg, err: err}
}

func (s *Service) removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
