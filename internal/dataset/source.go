package dataset

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/network-planner/internal/model"
)

// Source yields the candidate region table for one planning pass.
type Source interface {
	Regions(ctx context.Context) ([]model.Region, error)
}

// Format identifies a tabular encoding.
type Format string

// Supported dataset formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// maxDownloadBytes caps remote dataset downloads.
const maxDownloadBytes = 32 << 20

// GeneratorSource synthesizes regions from a seed.
type GeneratorSource struct {
	Seed int64
}

// Regions implements Source.
func (s GeneratorSource) Regions(_ context.Context) ([]model.Region, error) {
	return Generate(s.Seed), nil
}

// FileSource loads regions from a local CSV, JSON or XLSX file.
type FileSource struct {
	Path      string
	SheetName string
}

// Regions implements Source.
func (s FileSource) Regions(ctx context.Context) ([]model.Region, error) {
	format, err := formatFromPath(s.Path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		f, err := xlsx.OpenFile(s.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: open %s", s.Path)
		}
		return ParseXLSX(ctx, f, s.SheetName)
	}

	fh, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", s.Path)
	}
	defer fh.Close() //nolint:errcheck

	return decode(ctx, format, fh)
}

// RemoteSource downloads a CSV, JSON or XLSX dataset over HTTP.
type RemoteSource struct {
	URL        string
	SheetName  string
	UserAgent  string
	HTTPClient *http.Client
}

// Regions implements Source.
func (s RemoteSource) Regions(ctx context.Context) ([]model.Region, error) {
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: build request")
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dataset: download %s returned status %d", s.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read body")
	}
	if len(body) > maxDownloadBytes {
		return nil, eris.Errorf("dataset: download exceeds %d bytes", maxDownloadBytes)
	}

	format, err := formatFromURL(s.URL, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	zap.L().Debug("dataset: downloaded",
		zap.String("url", s.URL),
		zap.String("format", string(format)),
		zap.Int("bytes", len(body)),
	)

	if format == FormatXLSX {
		f, err := xlsx.OpenBinary(body)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: open xlsx")
		}
		return ParseXLSX(ctx, f, s.SheetName)
	}
	return decode(ctx, format, bytes.NewReader(body))
}

// NewSource picks a source for location: a URL, a file path, or the seeded
// generator when location is empty.
func NewSource(location, sheetName, userAgent string, seed int64) Source {
	switch {
	case location == "":
		return GeneratorSource{Seed: seed}
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return RemoteSource{URL: location, SheetName: sheetName, UserAgent: userAgent}
	default:
		return FileSource{Path: location, SheetName: sheetName}
	}
}

func decode(ctx context.Context, format Format, r io.Reader) ([]model.Region, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(ctx, r)
	case FormatJSON:
		return ParseJSON(ctx, r)
	default:
		return nil, eris.Errorf("dataset: unsupported format %q", format)
	}
}

func formatFromPath(p string) (Format, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("dataset: cannot infer format of %q (want .csv, .json or .xlsx)", p)
	}
}

func formatFromURL(raw, contentType string) (Format, error) {
	if u, err := url.Parse(raw); err == nil {
		if f, err := formatFromPath(path.Base(u.Path)); err == nil {
			return f, nil
		}
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "text/csv":
		return FormatCSV, nil
	case "application/json":
		return FormatJSON, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("dataset: cannot infer format of %s (content-type %q)", raw, contentType)
}
