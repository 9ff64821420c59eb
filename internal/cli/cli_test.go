package cli

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/nlpkit"
	"github.com/happyhackingspace/nlpkit/trainer"
)

const testConll = `# source: https://news.example.com/1
John	NNP	B-NP	B-PER
lives	VBZ	B-VP	O
in	IN	B-PP	O
Paris	NNP	B-NP	B-LOC
.	.	O	O

Mary	NNP	B-NP	B-PER
visited	VBD	B-VP	O
London	NNP	B-NP	B-LOC
.	.	O	O

The	DT	B-NP	O
dog	NN	I-NP	O
barks	VBZ	B-VP	O
.	.	O	O
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news.conll"), []byte(testConll), 0o644))
	return dir
}

func newTestCLI(stdin string) (*CLI, *bytes.Buffer) {
	c := New("test")
	out := &bytes.Buffer{}
	c.stdout = out
	c.stdin = strings.NewReader(stdin)
	return c, out
}

func trainArgs(dir string, extra ...string) []string {
	args := []string{"-s", "--data-folder", dir, "--tag-dict-cutoff", "1",
		"-p", "Algorithm=PERCEPTRON", "-p", "Cutoff=1", "-p", "Iterations=50"}
	return append(args, extra...)
}

func TestTrainersCommand(t *testing.T) {
	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), "trainers", "-s"))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), trainer.AlgorithmCRF)
	assert.Contains(t, out.String(), "event-sequence")

	c, out = newTestCLI("")
	require.NoError(t, c.Run(context.Background(), "trainers", "-s", "--json"))
	var algorithms []trainer.Algorithm
	require.NoError(t, json.Unmarshal(out.Bytes(), &algorithms))
	assert.Len(t, algorithms, len(c.Registry().Algorithms()))
}

func TestTrainCommand(t *testing.T) {
	dir := writeCorpus(t)
	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), append([]string{"train"}, trainArgs(dir)...)...))

	var report nlpkit.TrainReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 3, report.Sentences)
	assert.Equal(t, trainer.AlgorithmPerceptron, report.POS[trainer.AlgorithmParam])
	assert.NotEmpty(t, report.RunID)
}

func TestTrainCommandReportFile(t *testing.T) {
	dir := writeCorpus(t)
	path := filepath.Join(t.TempDir(), "report.json")
	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), append([]string{"train"}, trainArgs(dir, "--report", path)...)...))
	assert.Empty(t, out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id"`)
}

func TestTrainCommandParamsFile(t *testing.T) {
	dir := writeCorpus(t)
	paramsPath := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(paramsPath, []byte("Algorithm: NAIVEBAYES\nCutoff: 1\n"), 0o644))

	c, out := newTestCLI("")
	err := c.Run(context.Background(), "train", "-s", "--data-folder", dir, "--params", paramsPath, "-p", "Cutoff=0")
	require.NoError(t, err)
	var report nlpkit.TrainReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, trainer.AlgorithmNaiveBayes, report.POS[trainer.AlgorithmParam])
	assert.Equal(t, "0", report.POS[trainer.CutoffParam])
}

func TestTrainCommandRejectsBadParams(t *testing.T) {
	dir := writeCorpus(t)
	for name, args := range map[string][]string{
		"unknown algorithm": {"-p", "Algorithm=NOPE"},
		"bad iterations":    {"-p", "Iterations=0"},
		"malformed pair":    {"-p", "Cutoff"},
	} {
		t.Run(name, func(t *testing.T) {
			c, out := newTestCLI("")
			err := c.Run(context.Background(), append([]string{"train", "-s", "--data-folder", dir}, args...)...)
			require.Error(t, err)
			assert.ErrorIs(t, err, trainer.ErrInvalidParams)
			assert.Empty(t, out.String())
		})
	}
}

func TestTagCommandText(t *testing.T) {
	dir := writeCorpus(t)
	c, out := newTestCLI("")
	args := append([]string{"tag"}, trainArgs(dir, "--text", "John lives in Paris.", "--format", "conll")...)
	require.NoError(t, c.Run(context.Background(), args...))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "John\tNNP\t"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "\tB-PER"), lines[0])
	assert.Len(t, strings.Split(lines[3], "\t"), 4)
}

func TestTagCommandStdin(t *testing.T) {
	dir := writeCorpus(t)
	c, out := newTestCLI("Mary visited London.\n")
	require.NoError(t, c.Run(context.Background(), append([]string{"tag"}, trainArgs(dir)...)...))

	var doc nlpkit.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc.Sentences, 1)
	assert.Equal(t, "Mary visited London.", doc.Sentences[0].Text)
	assert.Len(t, doc.Sentences[0].Tokens, 4)
}

func TestTagCommandURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Visit</title></head><body><p>John lives in Paris.</p><script>no()</script></body></html>`))
	}))
	defer srv.Close()

	dir := writeCorpus(t)
	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), append([]string{"tag", srv.URL}, trainArgs(dir)...)...))

	var doc nlpkit.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "Visit", doc.Title)
	require.Len(t, doc.Sentences, 1)
	assert.Equal(t, "John lives in Paris.", doc.Sentences[0].Text)
}

func TestTagCommandErrors(t *testing.T) {
	dir := writeCorpus(t)

	c, _ := newTestCLI("")
	err := c.Run(context.Background(), append([]string{"tag"}, trainArgs(dir, "--text", "x", "--format", "xml")...)...)
	assert.ErrorContains(t, err, "unknown format")

	c, _ = newTestCLI("   \n")
	err = c.Run(context.Background(), append([]string{"tag"}, trainArgs(dir)...)...)
	assert.ErrorContains(t, err, "stdin is empty")

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c, _ = newTestCLI("")
	err = c.Run(context.Background(), append([]string{"tag", srv.URL}, trainArgs(dir)...)...)
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<!DOCTYPE html><html></html>", true},
		{"  <div>hello</div>", true},
		{"<p>x</p>", true},
		{"plain text with <b>bold</b>", false},
		{"<3 cats", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeHTML(tt.input), tt.input)
	}
}

func TestEvaluateCommand(t *testing.T) {
	dir := writeCorpus(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story.conll"), []byte("Anna\tNNP\tB-NP\tB-PER\nsleeps\tVBZ\tB-VP\tO\n.\t.\tO\tO\n"), 0o644))

	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), append([]string{"evaluate"}, trainArgs(dir, "--cv", "2", "--json")...)...))
	var result nlpkit.EvalResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2, result.Folds)
	assert.Equal(t, 4, result.SentenceTotal)
	assert.Equal(t, 16, result.POSTotal)

	c, out = newTestCLI("")
	require.NoError(t, c.Run(context.Background(), append([]string{"evaluate"}, trainArgs(dir, "--cv", "2")...)...))
	assert.Contains(t, out.String(), "POS accuracy:")
	assert.Contains(t, out.String(), "Folds: 2")
}

func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestExtractArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "corpus")
	n, err := extractArchive(bytes.NewReader(tarball(t, map[string]string{
		"data/news/a.conll": testConll,
		"b.conll":           "x\tNN\n",
	})), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dir, "news", "a.conll"))
	assert.FileExists(t, filepath.Join(dir, "b.conll"))

	_, err = extractArchive(bytes.NewReader(tarball(t, map[string]string{"../evil.conll": "x"})), dir)
	assert.ErrorContains(t, err, "escapes")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "evil.conll"))
}

func TestDataDownloadAndStats(t *testing.T) {
	archive := tarball(t, map[string]string{"data/news.conll": testConll})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.conll"), []byte("old\tNN\n"), 0o644))

	c, _ := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), "data", "download", "-s", "--url", srv.URL, "--data-folder", dir))
	assert.FileExists(t, filepath.Join(dir, "news.conll"))
	assert.NoFileExists(t, filepath.Join(dir, "stale.conll"))

	c, out := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), "data", "stats", "-s", "--data-folder", dir))
	assert.Regexp(t, `Sentences:\s+3`, out.String())
	assert.Regexp(t, `Tokens:\s+13`, out.String())
	assert.Regexp(t, `NNP\s+4`, out.String())
}

func TestDataDownloadKeepsCorpusOnBadArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a tarball"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	existing := filepath.Join(dir, "news.conll")
	require.NoError(t, os.WriteFile(existing, []byte(testConll), 0o644))

	c, _ := newTestCLI("")
	err := c.Run(context.Background(), "data", "download", "-s", "--url", srv.URL, "--data-folder", dir)
	require.Error(t, err)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, testConll, string(data))

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging directory must be cleaned up")
}

func TestDataDownloadKeepMerges(t *testing.T) {
	archive := tarball(t, map[string]string{"data/extra/new.conll": testConll})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.conll"), []byte("old\tNN\n"), 0o644))

	c, _ := newTestCLI("")
	require.NoError(t, c.Run(context.Background(), "data", "download", "-s", "--keep", "--url", srv.URL, "--data-folder", dir))
	assert.FileExists(t, filepath.Join(dir, "old.conll"))
	assert.FileExists(t, filepath.Join(dir, "extra", "new.conll"))
}

func TestDataDownloadRefusesWorkingDirectory(t *testing.T) {
	c, _ := newTestCLI("")
	err := c.Run(context.Background(), "data", "download", "-s", "--url", "http://127.0.0.1:0/x.tar.gz", "--data-folder", ".")
	assert.ErrorContains(t, err, "refusing to replace")
	assert.FileExists(t, "cli.go")
}

func TestDataDownloadRequiresURL(t *testing.T) {
	c, _ := newTestCLI("")
	assert.Error(t, c.Run(context.Background(), "data", "download", "-s"))
}
