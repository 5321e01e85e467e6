package dictionary

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	repoOwner = "droidmaximus"
	repoName  = "crosstem"

	// PinnedEtymologyURL is used when the latest release cannot be resolved.
	PinnedEtymologyURL = "https://github.com/droidmaximus/crosstem/releases/download/v0.2.0/etymology.json"
)

// ErrCorruptDownload is returned when a downloaded dataset is not a JSON array.
var ErrCorruptDownload = errors.New("downloaded etymology data is not a JSON array")

// DownloadOptions tunes EnsureEtymology. The zero value downloads from
// GitHub with a default client.
type DownloadOptions struct {
	// Force re-downloads even when the file exists.
	Force bool
	// Client defaults to an http.Client with no overall timeout; the dataset
	// is around a gigabyte.
	Client *http.Client
	// ReleaseAPI overrides the GitHub "latest release" endpoint.
	ReleaseAPI string
	// FallbackURL overrides PinnedEtymologyURL.
	FallbackURL string
	Logger      *slog.Logger
}

func (o *DownloadOptions) defaults() {
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	if o.ReleaseAPI == "" {
		o.ReleaseAPI = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)
	}
	if o.FallbackURL == "" {
		o.FallbackURL = PinnedEtymologyURL
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// IsEtymologyDownloaded reports whether the dataset exists at path.
func IsEtymologyDownloaded(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RemoveEtymology deletes the dataset at path. A missing file is not an error.
func RemoveEtymology(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// EnsureEtymology makes sure the etymology dataset exists at path. If not,
// it resolves the newest release asset, downloads it next to path and moves
// it into place once it looks like a JSON array.
func EnsureEtymology(ctx context.Context, path string, opts DownloadOptions) error {
	opts.defaults()
	if _, err := os.Stat(path); err == nil {
		if !opts.Force {
			return nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	url, err := latestReleaseAssetURL(ctx, opts)
	if err != nil {
		opts.Logger.Warn("latest release lookup failed, using pinned release",
			slog.Any("error", err), slog.String("url", opts.FallbackURL))
		url = opts.FallbackURL
	}

	opts.Logger.Info("downloading etymology data", slog.String("url", url), slog.String("path", path))
	start := time.Now()
	n, err := download(ctx, opts.Client, url, path)
	if err != nil {
		return err
	}
	opts.Logger.Info("etymology data downloaded",
		slog.String("path", path),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func latestReleaseAssetURL(ctx context.Context, opts DownloadOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.ReleaseAPI, nil)
	if err != nil {
		return "", err
	}
	// GitHub rejects API calls without a User-Agent.
	req.Header.Set("User-Agent", "crosstem-cli")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := opts.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
		Assets  []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	for _, asset := range release.Assets {
		if strings.HasPrefix(asset.Name, "etymology") &&
			(strings.HasSuffix(asset.Name, ".json") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("no etymology asset in release %s", release.TagName)
}

func download(ctx context.Context, client *http.Client, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "crosstem-cli")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	br := bufio.NewReaderSize(body, 1<<16)
	if err := checkJSONArray(br); err != nil {
		tmp.Close()
		return 0, err
	}
	n, err := io.Copy(tmp, br)
	if err != nil {
		tmp.Close()
		return n, fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	return n, os.Rename(tmp.Name(), destPath)
}

// checkJSONArray peeks past leading whitespace and requires '['.
func checkJSONArray(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptDownload, err)
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			br.Discard(1)
		case '[':
			return nil
		default:
			return ErrCorruptDownload
		}
	}
}
