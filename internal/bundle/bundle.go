// Package bundle reads and writes the host's minified bundle file, keeps a
// backup of the pristine copy, and reports every operation to an optional
// audit callback.
package bundle

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianholle/custom-claude-avatar/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BackupSuffix is appended to the bundle's file name for its backup copy.
const BackupSuffix = ".bak"

// OpType defines the kinds of bundle operations.
type OpType string

const (
	OpRead    OpType = "read"
	OpWrite   OpType = "write"
	OpBackup  OpType = "backup"
	OpRestore OpType = "restore"
)

// AuditEvent represents an audit event for a bundle operation.
type AuditEvent struct {
	Type      OpType    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	SessionID string    `json:"session_id"`
	Bytes     int       `json:"bytes,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	OldHash   string    `json:"old_hash,omitempty"`
	NewHash   string    `json:"new_hash,omitempty"`
}

// Result represents the outcome of a write, backup or restore.
type Result struct {
	Success    bool   `json:"success"`
	Path       string `json:"path"`
	BackupPath string `json:"backup_path,omitempty"`
	Bytes      int    `json:"bytes"`
	OldHash    string `json:"old_hash,omitempty"`
	NewHash    string `json:"new_hash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Store handles all bundle file operations with audit reporting.
type Store struct {
	mu sync.RWMutex

	auditCallback func(AuditEvent)

	sessionID string

	// backupDir holds backups; empty means next to the bundle.
	backupDir string

	logger *zap.Logger
}

// NewStore creates a Store with a fresh session ID. A nil logger discards
// output.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		sessionID: uuid.NewString(),
		logger:    logging.For(logger, logging.CategoryBundle),
	}
}

// SessionID returns the ID stamped on every audit event.
func (s *Store) SessionID() string {
	return s.sessionID
}

// SetAuditCallback sets the callback for audit events.
func (s *Store) SetAuditCallback(callback func(AuditEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditCallback = callback
}

// SetBackupDir sets where backups are written.
func (s *Store) SetBackupDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backupDir = dir
}

func (s *Store) emitAudit(event AuditEvent) {
	s.mu.RLock()
	cb := s.auditCallback
	s.mu.RUnlock()

	event.Timestamp = time.Now()
	event.SessionID = s.sessionID
	if cb != nil {
		cb(event)
	}
}

// Hash computes the SHA256 hash of a document.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum[:])
}

// shortHash is used in log fields.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// BackupPath returns the backup location for path.
func (s *Store) BackupPath(path string) string {
	s.mu.RLock()
	dir := s.backupDir
	s.mu.RUnlock()
	if dir == "" {
		return path + BackupSuffix
	}
	return filepath.Join(dir, filepath.Base(path)+BackupSuffix)
}

// Read returns the whole document at path.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("bundle read failed", zap.String("path", path), zap.Error(err))
		s.emitAudit(AuditEvent{Type: OpRead, Path: path, Error: err.Error()})
		return "", fmt.Errorf("failed to read bundle: %w", err)
	}
	content := string(data)
	s.logger.Debug("bundle read", zap.String("path", path), zap.Int("bytes", len(data)))
	s.emitAudit(AuditEvent{Type: OpRead, Path: path, Bytes: len(data), Success: true, NewHash: Hash(content)})
	return content, nil
}

// Write replaces the document at path. The new content is written to a
// temporary file in the same directory and renamed over the target, so a
// failed write never leaves a truncated bundle. The file mode is preserved.
func (s *Store) Write(path, content string) (*Result, error) {
	result := &Result{Path: path, Bytes: len(content), NewHash: Hash(content)}

	target := Target(path)
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
		if old, err := os.ReadFile(target); err == nil {
			result.OldHash = Hash(string(old))
		}
	}

	if err := writeAtomic(target, []byte(content), mode); err != nil {
		return s.fail(OpWrite, result, err)
	}

	result.Success = true
	s.logger.Info("bundle written",
		zap.String("path", path),
		zap.String("target", target),
		zap.Int("bytes", len(content)),
		zap.String("old_hash", shortHash(result.OldHash)),
		zap.String("new_hash", shortHash(result.NewHash)),
	)
	s.emitAudit(AuditEvent{Type: OpWrite, Path: path, Bytes: len(content), Success: true, OldHash: result.OldHash, NewHash: result.NewHash})
	return result, nil
}

// Backup copies the document at path to BackupPath, replacing any earlier
// backup.
func (s *Store) Backup(path string) (*Result, error) {
	backup := s.BackupPath(path)
	result := &Result{Path: path, BackupPath: backup}

	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(OpBackup, result, err)
	}
	if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
		return s.fail(OpBackup, result, err)
	}
	if err := writeAtomic(backup, data, 0644); err != nil {
		return s.fail(OpBackup, result, err)
	}

	result.Success = true
	result.Bytes = len(data)
	result.NewHash = Hash(string(data))
	s.logger.Info("bundle backed up", zap.String("path", path), zap.String("backup", backup))
	s.emitAudit(AuditEvent{Type: OpBackup, Path: backup, Bytes: len(data), Success: true, NewHash: result.NewHash})
	return result, nil
}

// Restore copies the backup of path back over path. The backup is kept.
func (s *Store) Restore(path string) (*Result, error) {
	backup := s.BackupPath(path)
	result := &Result{Path: path, BackupPath: backup}

	data, err := os.ReadFile(backup)
	if err != nil {
		return s.fail(OpRestore, result, fmt.Errorf("no backup to restore: %w", err))
	}

	target := Target(path)
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
		if old, err := os.ReadFile(target); err == nil {
			result.OldHash = Hash(string(old))
		}
	}
	if err := writeAtomic(target, data, mode); err != nil {
		return s.fail(OpRestore, result, err)
	}

	result.Success = true
	result.Bytes = len(data)
	result.NewHash = Hash(string(data))
	s.logger.Info("bundle restored", zap.String("path", path), zap.String("backup", backup))
	s.emitAudit(AuditEvent{Type: OpRestore, Path: path, Bytes: len(data), Success: true, OldHash: result.OldHash, NewHash: result.NewHash})
	return result, nil
}

// HasBackup reports whether a backup exists for path.
func (s *Store) HasBackup(path string) bool {
	_, err := os.Stat(s.BackupPath(path))
	return err == nil
}

func (s *Store) fail(op OpType, result *Result, err error) (*Result, error) {
	result.Success = false
	result.Error = err.Error()
	s.logger.Error("bundle "+string(op)+" failed", zap.String("path", result.Path), zap.Error(err))
	s.emitAudit(AuditEvent{Type: op, Path: result.Path, Error: err.Error()})
	return result, fmt.Errorf("bundle %s %s: %w", op, result.Path, err)
}

// Target follows symlinks in path so a write replaces the linked file rather
// than the link. A path that cannot be resolved is returned unchanged.
func Target(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
