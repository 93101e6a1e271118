package artifact

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
)

// ReportTimeLayout names report files by their UTC creation second.
const ReportTimeLayout = "2006-01-02T15:04:05"

// TempSuffix marks files still being written. Readers skip them.
const TempSuffix = ".tmp"

// Report kinds, also used as metric labels.
const (
	KindSelect       = "select"
	KindInsert       = "insert"
	KindSelectReport = "select_report"
	KindInsertReport = "insert_report"
)

// Writer persists artifacts into the configured directories. Writing a file
// that already exists replaces it.
type Writer struct {
	dirs    config.ArtifactsConfig
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

func NewWriter(dirs config.ArtifactsConfig, m *metrics.Metrics) *Writer {
	return &Writer{
		dirs:    dirs,
		metrics: m,
		now:     time.Now,
		logger:  slog.Default().With("component", "artifact-writer"),
	}
}

// QueryPath is where the query artifact for key is stored.
func (w *Writer) QueryPath(key trigram.Key) string {
	return filepath.Join(w.dirs.SelectDir, keyName(key))
}

// InsertPath is where the insert artifact for key at freq is stored.
func (w *Writer) InsertPath(key trigram.Key, freq int64) string {
	return filepath.Join(w.dirs.InsertDir, keyName(key)+"-"+strconv.FormatInt(freq, 10))
}

// WriteQuery renders and stores a query artifact, returning its path.
func (w *Writer) WriteQuery(o trigram.QueryOutcome) (string, error) {
	path := w.QueryPath(o.Key)
	err := writeFile(path, RenderQuery(o))
	w.metrics.ArtifactWritten(KindSelect, err)
	return path, err
}

// WriteInsert renders and stores an insert artifact, returning its path.
func (w *Writer) WriteInsert(o trigram.InsertOutcome) (string, error) {
	path := w.InsertPath(o.Key, o.Freq)
	err := writeFile(path, RenderInsert(o))
	w.metrics.ArtifactWritten(KindInsert, err)
	return path, err
}

// WriteReport stores report lines under the stats directory for kind
// (KindSelect or KindInsert), one per line, named by the current UTC time.
func (w *Writer) WriteReport(kind string, lines []string) (string, error) {
	dir, label := w.dirs.SelectStatsDir, KindSelectReport
	if kind == KindInsert {
		dir, label = w.dirs.InsertStatsDir, KindInsertReport
	}
	path := filepath.Join(dir, w.now().UTC().Format(ReportTimeLayout))

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	err := writeFile(path, b.String())
	w.metrics.ArtifactWritten(label, err)
	if err == nil {
		w.logger.Info("report written", "kind", kind, "path", path, "lines", len(lines))
	}
	return path, err
}

func keyName(key trigram.Key) string {
	return url.PathEscape(key.Word1) + "-" + url.PathEscape(key.Word2) + "-" + url.PathEscape(key.Word3)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrArtifactIO, "creating artifact directory", err)
	}
	tmpPath := path + TempSuffix
	f, err := os.Create(tmpPath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrArtifactIO, "creating "+tmpPath, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.ErrArtifactIO, "writing "+tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.ErrArtifactIO, "closing "+tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.ErrArtifactIO, fmt.Sprintf("renaming %s to %s", tmpPath, path), err)
	}
	return nil
}
