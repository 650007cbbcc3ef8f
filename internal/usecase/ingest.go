package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// IngestUseCase embeds texts and adds them to the document store.
type IngestUseCase struct {
	embedder port.Embedder
	store    port.DocumentStore
	logger   *zap.Logger
	splitter *chunker.LineSplitter // nil keeps each file whole
}

func NewIngestUseCase(embedder port.Embedder, store port.DocumentStore, logger *zap.Logger) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{embedder: embedder, store: store, logger: logger}
}

// Ingest stores one text. Blank text is Rejected without calling the
// embedder, and text already in the store is reported AlreadyPresent
// without being embedded again.
func (u *IngestUseCase) Ingest(ctx context.Context, text string) (domain.IngestResult, error) {
	start := time.Now()
	res, err := u.ingest(ctx, text)

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.String("id", res.ID),
		zap.Int("doc_count", res.DocCount),
		zap.Int("chars", len(text)),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case err != nil:
		u.logger.Error("ingest", append(fields, zap.Error(err))...)
	case res.Status == domain.StatusRejected:
		u.logger.Warn("ingest", append(fields, zap.String("reason", "empty text"))...)
	default:
		u.logger.Info("ingest", fields...)
	}
	return res, err
}

func (u *IngestUseCase) ingest(ctx context.Context, text string) (domain.IngestResult, error) {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		count, err := u.store.Count(ctx)
		if err != nil {
			return domain.IngestResult{}, err
		}
		return domain.IngestResult{Status: domain.StatusRejected, DocCount: count}, nil
	}

	id := domain.ContentID(normalized)
	if _, err := u.store.Get(ctx, id); err == nil {
		count, err := u.store.Count(ctx)
		if err != nil {
			return domain.IngestResult{}, err
		}
		return domain.IngestResult{Status: domain.StatusAlreadyPresent, ID: id, DocCount: count}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.IngestResult{}, err
	}

	vecs, err := u.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("embed document: %w", err)
	}
	if len(vecs) != 1 {
		return domain.IngestResult{}, fmt.Errorf("embedder returned %d vectors for one document", len(vecs))
	}

	return u.store.Ingest(ctx, normalized, vecs[0])
}

// WithSplitter makes IngestFiles store each file as several passages.
func (u *IngestUseCase) WithSplitter(s *chunker.LineSplitter) *IngestUseCase {
	u.splitter = s
	return u
}

// BulkResult summarises an IngestFiles run. The status counts are per
// stored passage, which is per file unless a splitter is set.
type BulkResult struct {
	Files          int
	Inserted       int
	AlreadyPresent int
	Rejected       int
	Skipped        []string // too large
	Errors         []string // "path: error"
	DocCount       int
}

// ProgressFunc is called after each file with the number processed so far.
type ProgressFunc func(processed, total int, current string)

// IngestFiles ingests every file the walker yields under root, one document
// per file, or per passage when a splitter is set. A file that cannot be
// read or ingested is recorded in Errors and the run continues; only a walk
// failure or cancellation aborts it.
func (u *IngestUseCase) IngestFiles(ctx context.Context, root string, walker *fs.Walker, progress ProgressFunc) (*BulkResult, error) {
	files, skipped, err := walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	result := &BulkResult{Files: len(files), Skipped: skipped}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		results, err := u.ingestFile(ctx, f.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.RelPath, err))
		}
		for _, res := range results {
			switch res.Status {
			case domain.StatusInserted:
				result.Inserted++
			case domain.StatusAlreadyPresent:
				result.AlreadyPresent++
			case domain.StatusRejected:
				result.Rejected++
			}
		}

		if progress != nil {
			progress(i+1, len(files), f.RelPath)
		}
	}

	count, err := u.store.Count(ctx)
	if err != nil {
		return result, err
	}
	result.DocCount = count
	return result, nil
}

func (u *IngestUseCase) ingestFile(ctx context.Context, path string) ([]domain.IngestResult, error) {
	text, err := fs.ReadText(path)
	if err != nil {
		return nil, err
	}

	passages := []string{text}
	if u.splitter != nil {
		if split := u.splitter.Split(text); len(split) > 0 {
			passages = split
		}
	}

	results := make([]domain.IngestResult, 0, len(passages))
	for _, p := range passages {
		res, err := u.Ingest(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
