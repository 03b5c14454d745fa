// Package modelstore resolves YOLOv8 model variants to local ONNX files,
// downloading them on first use.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Variants lists the supported model sizes, fastest first.
var Variants = []string{"yolov8n", "yolov8s", "yolov8m", "yolov8l", "yolov8x"}

var (
	// ErrUnknownVariant is returned for a model name outside Variants.
	ErrUnknownVariant = errors.New("unknown model variant")
	// ErrNoSource is returned when a model is not cached and no download URL is configured.
	ErrNoSource = errors.New("model is not cached and no download URL is configured")
)

// IsVariant reports whether name is one of the supported variants.
func IsVariant(name string) bool {
	for _, v := range Variants {
		if v == name {
			return true
		}
	}
	return false
}

// Logger is the subset of the application logger the store uses.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
}

// ModelInfo describes a variant and whether it is available locally.
type ModelInfo struct {
	Name   string `json:"name"`
	Cached bool   `json:"cached"`
	Path   string `json:"path,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

// Store caches model artifacts in a directory.
type Store struct {
	dir     string
	baseURL string
	client  *http.Client
	logger  Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir. baseURL may be empty, in which case
// only already-cached variants can be resolved.
func NewStore(dir, baseURL string, timeout time.Duration, logger Logger) *Store {
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Path returns where variant is (or would be) cached.
func (s *Store) Path(variant string) string {
	return filepath.Join(s.dir, variant+".onnx")
}

// Cached reports whether variant is available locally.
func (s *Store) Cached(variant string) bool {
	info, err := os.Stat(s.Path(variant))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// List reports every variant and its cache state.
func (s *Store) List() []ModelInfo {
	out := make([]ModelInfo, 0, len(Variants))
	for _, v := range Variants {
		mi := ModelInfo{Name: v}
		if info, err := os.Stat(s.Path(v)); err == nil && info.Size() > 0 {
			mi.Cached = true
			mi.Path = s.Path(v)
			mi.Size = info.Size()
		}
		out = append(out, mi)
	}
	return out
}

// Ensure returns the local path of variant, downloading it first if it is not cached.
func (s *Store) Ensure(ctx context.Context, variant string) (string, error) {
	if !IsVariant(variant) {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	lock := s.lockFor(variant)
	lock.Lock()
	defer lock.Unlock()

	path := s.Path(variant)
	if s.Cached(variant) {
		return path, nil
	}
	if s.baseURL == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSource, path)
	}

	if err := s.download(ctx, variant, path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) lockFor(variant string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[variant]
	if !ok {
		l = &sync.Mutex{}
		s.locks[variant] = l
	}
	return l
}

// download fetches <baseURL>/<variant>.onnx into a temp file and renames it
// into place so a partial download is never mistaken for a cached model.
func (s *Store) download(ctx context.Context, variant, path string) error {
	url := s.baseURL + "/" + variant + ".onnx"
	if s.logger != nil {
		s.logger.Info("Downloading model %s from %s", variant, url)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, variant+"-*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", variant, err)
	}
	if n == 0 {
		return fmt.Errorf("downloaded model %s is empty", variant)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move model into cache: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Model %s cached at %s (%d bytes)", variant, path, n)
	}
	return nil
}
