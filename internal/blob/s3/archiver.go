package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// defaultMultipartThreshold is the artifact size at which ArchiveRunDir
// switches from a single PutObject to a multipart upload. Prompt CSVs for a
// large snapshot can run to tens of megabytes.
const defaultMultipartThreshold int64 = 16 * 1024 * 1024

// Archiver uploads the artifacts of one scan run to object storage so runs
// can be replayed or audited later. Local files stay in place; the upload is
// a copy, never a move.
type Archiver struct {
	writer             domain.BlobWriter
	prefix             string
	multipartThreshold int64
}

// NewArchiver creates an Archiver that stores objects under the given key
// prefix, e.g. "runs".
func NewArchiver(writer domain.BlobWriter, prefix string) *Archiver {
	return &Archiver{
		writer:             writer,
		prefix:             strings.Trim(prefix, "/"),
		multipartThreshold: defaultMultipartThreshold,
	}
}

// ArchiveRunDir uploads every CSV file in dir under {prefix}/{runID}/. It
// returns the number of files uploaded. Files at or above the multipart
// threshold are streamed in parts.
func (a *Archiver) ArchiveRunDir(ctx context.Context, runID, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("s3blob: read run dir %s: %w", dir, err)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return uploaded, fmt.Errorf("s3blob: stat artifact %s: %w", entry.Name(), err)
		}

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return uploaded, fmt.Errorf("s3blob: open artifact %s: %w", entry.Name(), err)
		}

		key := a.runKey(runID, entry.Name())
		if info.Size() >= a.multipartThreshold {
			err = a.writer.PutMultipart(ctx, key, f, "text/csv")
		} else {
			err = a.writer.Put(ctx, key, f, "text/csv")
		}
		_ = f.Close()
		if err != nil {
			return uploaded, fmt.Errorf("s3blob: upload artifact %s: %w", key, err)
		}
		uploaded++
	}
	return uploaded, nil
}

// ArchiveOpportunities serializes the evaluated opportunities of one run to
// JSONL and uploads the file to {prefix}/{runID}/opportunities.jsonl.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, runID string, opps []domain.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return fmt.Errorf("s3blob: marshal opportunities: %w", err)
	}

	key := a.runKey(runID, "opportunities.jsonl")
	if err := a.writer.Put(ctx, key, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: upload opportunities %s: %w", key, err)
	}
	return nil
}

func (a *Archiver) runKey(runID, name string) string {
	if a.prefix == "" {
		return runID + "/" + name
	}
	return a.prefix + "/" + runID + "/" + name
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
