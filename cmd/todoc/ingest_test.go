package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIngester struct {
	mu    sync.Mutex
	calls []string
	texts map[string]string
}

func (r *recordingIngester) Ingest(_ context.Context, collection, source, text string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, collection+"/"+source)
	if r.texts == nil {
		r.texts = map[string]string{}
	}
	r.texts[source] = text
	return 1, nil
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	write("mom_docs/sleep_guide.md", "# 수면\n\n**낮잠**은 하루 두 번이 적당해요.")
	write("doctor_docs/fever.txt", "38도 이상이면 해열제를 고려하세요.")
	write("doctor_docs/image.png", "binary")
	write("README.md", "top-level files are not collections")

	ing := &recordingIngester{}
	require.NoError(t, ingestDir(context.Background(), ing, root))

	sort.Strings(ing.calls)
	assert.Equal(t, []string{"doctor_docs/fever.txt", "mom_docs/sleep_guide.md"}, ing.calls)
	assert.Equal(t, "수면\n낮잠은 하루 두 번이 적당해요.", ing.texts["sleep_guide.md"])
	assert.Equal(t, "38도 이상이면 해열제를 고려하세요.", ing.texts["fever.txt"])
}

func TestIngestDir_MissingRoot(t *testing.T) {
	assert.Error(t, ingestDir(context.Background(), &recordingIngester{}, filepath.Join(t.TempDir(), "nope")))
}
