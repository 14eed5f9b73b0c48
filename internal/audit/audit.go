// Package audit records gateway authorization decisions. Recording is
// best-effort and happens outside the decision function, which stays pure.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"refhub/ref-edge/internal/gate"
)

type Record struct {
	At       string `json:"at"`
	Path     string `json:"path"`
	Class    string `json:"class"`
	Subject  string `json:"subject,omitempty"`
	Role     string `json:"role,omitempty"`
	Decision string `json:"decision"`
	Target   string `json:"target,omitempty"`
}

func newRecord(path string, class gate.RouteClass, subject, role string, decision gate.Decision) Record {
	return Record{
		At:       time.Now().UTC().Format(time.RFC3339),
		Path:     path,
		Class:    string(class),
		Subject:  subject,
		Role:     role,
		Decision: string(decision.Action),
		Target:   decision.Target,
	}
}

// FileRecorder appends decision records to a JSON-lines file.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

func (l *FileRecorder) Record(path string, class gate.RouteClass, subject, role string, decision gate.Decision) error {
	if l == nil || l.path == "" {
		return nil
	}
	b, err := json.Marshal(newRecord(path, class, subject, role, decision))
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir decision log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open decision log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write decision record: %w", err)
	}
	return nil
}
