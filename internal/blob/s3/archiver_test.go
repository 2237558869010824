package s3blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

type memWriter struct {
	objects      map[string][]byte
	contentTypes map[string]string
	multipart    map[string]bool
}

func newMemWriter() *memWriter {
	return &memWriter{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
		multipart:    map[string]bool{},
	}
}

func (m *memWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = b
	m.contentTypes[path] = contentType
	return nil
}

func (m *memWriter) PutMultipart(ctx context.Context, path string, data io.Reader, contentType string) error {
	m.multipart[path] = true
	return m.Put(ctx, path, data, contentType)
}

func TestArchiveRunDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candidates.csv"), []byte("a,b\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opportunities.csv"), []byte("c,d\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600))

	w := newMemWriter()
	arch := NewArchiver(w, "runs")

	n, err := arch.ArchiveRunDir(context.Background(), "run-1", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []byte("a,b\n"), w.objects["runs/run-1/candidates.csv"])
	assert.Equal(t, "text/csv", w.contentTypes["runs/run-1/opportunities.csv"])
	assert.NotContains(t, w.objects, "runs/run-1/notes.txt")
	assert.Empty(t, w.multipart)
}

func TestArchiveRunDirLargeFileUsesMultipart(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x,y\n", 16)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts.csv"), []byte(big), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candidates.csv"), []byte("a,b\n"), 0o600))

	w := newMemWriter()
	arch := NewArchiver(w, "runs")
	arch.multipartThreshold = int64(len(big))

	n, err := arch.ArchiveRunDir(context.Background(), "run-1", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, w.multipart["runs/run-1/prompts.csv"])
	assert.False(t, w.multipart["runs/run-1/candidates.csv"])
	assert.Equal(t, "text/csv", w.contentTypes["runs/run-1/prompts.csv"])
	assert.Equal(t, []byte(big), w.objects["runs/run-1/prompts.csv"])
}

func TestArchiveOpportunities(t *testing.T) {
	w := newMemWriter()
	arch := NewArchiver(w, "")

	opps := []domain.ArbitrageOpportunity{
		{
			ID:         "opp-1",
			Strategy:   domain.StrategyBuyNoPolyYesKalshi,
			TotalCost:  0.97,
			Profit:     0.03,
			DetectedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{ID: "opp-2", Strategy: domain.StrategyBuyYesPolyNoKalshi, Profit: 0.10},
	}

	require.NoError(t, arch.ArchiveOpportunities(context.Background(), "run-1", opps))

	body := string(w.objects["run-1/opportunities.jsonl"])
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"opp-1"`)
	assert.Contains(t, lines[1], `"buy_yes_poly_no_kalshi"`)
	assert.Equal(t, "application/x-ndjson", w.contentTypes["run-1/opportunities.jsonl"])
}

func TestArchiveOpportunitiesEmpty(t *testing.T) {
	w := newMemWriter()
	arch := NewArchiver(w, "runs")
	require.NoError(t, arch.ArchiveOpportunities(context.Background(), "run-1", nil))
	assert.Empty(t, w.objects)
}
