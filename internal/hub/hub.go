// Package hub resolves the pretrained VAD model, downloading it from a remote model hub
// into a local cache directory on first use.
package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

type Loader struct {
	URL    string
	Dir    string
	Client *http.Client
}

// ModelPath returns the local path of the cached model, downloading it if necessary.
func (l *Loader) ModelPath(ctx context.Context) (string, error) {
	name, err := modelFileName(l.URL)
	if err != nil {
		return "", err
	}

	dir := l.Dir
	if dir == "" {
		dir, err = DefaultDir()
		if err != nil {
			return "", err
		}
	}

	destPath := filepath.Join(dir, name)

	if _, err := os.Stat(destPath); err == nil {
		slog.Debug("using cached model", "path", destPath)
		return destPath, nil
	}

	err = l.download(ctx, destPath)
	if err != nil {
		return "", err
	}

	return destPath, nil
}

// DefaultDir returns the per-user directory models are cached in.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determine model cache directory: %w", err)
	}

	return filepath.Join(dir, "vad-monitor", "models"), nil
}

func modelFileName(modelURL string) (string, error) {
	u, err := url.Parse(modelURL)
	if err != nil {
		return "", fmt.Errorf("parse model url: %w", err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("model url %q does not point to a file", modelURL)
	}

	return name, nil
}

func (l *Loader) download(ctx context.Context, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	slog.Info("downloading model", "url", l.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return fmt.Errorf("create model download request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download model %s: unexpected status %s", l.URL, resp.Status)
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer out.Close()

	var writer io.Writer = out
	if resp.ContentLength > 0 {
		writer = io.MultiWriter(out, &progressWriter{
			total:   resp.ContentLength,
			name:    filepath.Base(destPath),
			lastLog: time.Now(),
		})
	}

	size, err := io.Copy(writer, resp.Body)
	if err != nil {
		return fmt.Errorf("write model file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("move model file into place: %w", err)
	}

	slog.Info("model downloaded", "path", destPath, "bytes", size)

	return nil
}

type progressWriter struct {
	total      int64
	downloaded int64
	lastLog    time.Time
	name       string
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.downloaded += int64(len(p))

	now := time.Now()
	if now.Sub(w.lastLog) >= 2*time.Second || w.downloaded >= w.total {
		w.lastLog = now
		slog.Info("downloading model",
			"model", w.name,
			"percent", fmt.Sprintf("%.1f", float64(w.downloaded)/float64(w.total)*100))
	}

	return len(p), nil
}
