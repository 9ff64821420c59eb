package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# a comment
The	DT	B-NP	O
cat	NN	I-NP	O
sat	VBD	B-VP	O

# source: https://news.example.co.uk/a
Paris	NNP	B-NP	B-LOC
sleeps	VBZ	B-VP	O
`

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader(sample), "a.conll")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"The", "cat", "sat"}, got[0].Words())
	assert.Equal(t, []string{"DT", "NN", "VBD"}, got[0].POSTags())
	assert.Equal(t, []string{"B-NP", "I-NP", "B-VP"}, got[0].Chunks())
	assert.True(t, got[0].HasEntities())
	assert.Equal(t, "a.conll", got[0].Group)

	assert.Equal(t, []string{"B-LOC", "O"}, got[1].Entities())
	assert.Equal(t, "example", got[1].Group)
	assert.Equal(t, "a.conll", got[1].Source)
}

func TestReadPOSOnly(t *testing.T) {
	got, err := Read(strings.NewReader("a DT\ndog NN\n"), "x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HasChunks())
	assert.Equal(t, []string{"", ""}, got[0].Chunks())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader("lonely\n"), "x")
	assert.ErrorContains(t, err, "x:1")

	_, err = Read(strings.NewReader("a DT B-NP\nb NN\n"), "y")
	assert.ErrorContains(t, err, "y:2")
}

func TestWriteRoundTrip(t *testing.T) {
	in, err := Read(strings.NewReader(sample), "a.conll")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	out, err := Read(&buf, "a.conll")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Tokens, out[0].Tokens)
	assert.Equal(t, in[1].Tokens, out[1].Tokens)
}

func TestWriteFillsMissingColumns(t *testing.T) {
	var buf bytes.Buffer
	s := Sentence{Columns: 3, Tokens: []Token{{Text: "hi", POS: "UH"}}}
	require.NoError(t, Write(&buf, []Sentence{s}))
	assert.Equal(t, "hi\tUH\t_\n", buf.String())
}

func TestReadPlaceholderLabels(t *testing.T) {
	got, err := Read(strings.NewReader("Rome\tNNP\t_\tB-LOC\nfalls\tVBZ\t_\tO\n"), "x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"", ""}, got[0].Chunks())
	assert.False(t, got[0].HasChunks())
	assert.True(t, got[0].HasEntities())

	partial, err := Read(strings.NewReader("a\tDT\tB-NP\ndog\tNN\t_\n"), "y")
	require.NoError(t, err)
	assert.False(t, partial[0].HasChunks())
}

func TestWriteMissingColumnsRoundTrip(t *testing.T) {
	in := []Sentence{{Columns: 4, Tokens: []Token{{Text: "hi", POS: "UH", Entity: "O"}, {Text: "Bob", POS: "NNP", Entity: "B-PER"}}}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	out, err := Read(&buf, "z")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].Tokens, out[0].Tokens)
	assert.False(t, out[0].HasChunks())
	assert.True(t, out[0].HasEntities())
}

func TestStorageReadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.conll"), []byte("x DT\n\nx DT\n\ny NN\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("z NN\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	s := NewStorage(dir)
	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.conll", "sub/a.txt"}, files)

	all, err := s.ReadAll(IterOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	deduped, err := s.ReadAll(DefaultIterOptions())
	require.NoError(t, err)
	assert.Len(t, deduped, 3)
	assert.Equal(t, "sub/a.txt", deduped[2].Group)
}

func TestGetDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.org/page", "example"},
		{"https://foo.example.co.uk/path", "example"},
		{"http://www.google.com", "google"},
		{"example.org", "example"},
		{"http://localhost:8080/path", "localhost"},
	}
	for _, tt := range tests {
		got := GetDomain(tt.url)
		if got != tt.want {
			t.Errorf("GetDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
