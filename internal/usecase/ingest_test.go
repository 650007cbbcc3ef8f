package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
)

func TestIngest_Statuses(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	res, err := f.ingest.Ingest(ctx, "Paris is the capital of France.")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInserted, res.Status)
	assert.Equal(t, 1, res.DocCount)

	embedCalls := f.embedder.count()
	res, err = f.ingest.Ingest(ctx, "Paris is the   capital of France.")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAlreadyPresent, res.Status)
	assert.Equal(t, 1, res.DocCount)
	assert.Equal(t, embedCalls, f.embedder.count(), "known text is not embedded again")

	res, err = f.ingest.Ingest(ctx, " \n ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assert.Equal(t, 1, res.DocCount)
	assert.Equal(t, embedCalls, f.embedder.count())
}

func TestIngestFiles(t *testing.T) {
	f := newPipelineFixture(t)
	root := t.TempDir()
	files := map[string]string{
		"a.txt":       "Paris is the capital of France.",
		"b.txt":       "The Eiffel Tower is in Paris.",
		"dup.txt":     "Paris is the capital of France.",
		"blank.txt":   "   ",
		"bad.txt":     string([]byte{0xff, 0xfe}),
		"skip/c.json": "{}",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	var progressed []int
	walker := fs.NewWalker([]string{"**/*.txt"}, nil, 0)
	res, err := f.ingest.IngestFiles(context.Background(), root, walker, func(done, total int, current string) {
		progressed = append(progressed, done)
		assert.Equal(t, 5, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Files)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.AlreadyPresent)
	assert.Equal(t, 1, res.Rejected)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bad.txt")
	assert.Equal(t, 2, res.DocCount)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progressed)
}

func TestIngestFiles_Split(t *testing.T) {
	f := newPipelineFixture(t)
	f.ingest.WithSplitter(chunker.NewLineSplitter(6, 0))

	root := t.TempDir()
	content := "Paris is the capital of France.\nBerlin is the capital of Germany.\n\nThe Nile is a river."
	require.NoError(t, os.WriteFile(filepath.Join(root, "facts.txt"), []byte(content), 0644))

	res, err := f.ingest.IngestFiles(context.Background(), root, fs.NewWalker([]string{"**/*.txt"}, nil, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 3, res.DocCount)

	again, err := f.ingest.IngestFiles(context.Background(), root, fs.NewWalker([]string{"**/*.txt"}, nil, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 3, again.AlreadyPresent)
}
