package corpus

import (
	"bufio"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// Storage wraps a folder of corpus files.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given data folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// IterOptions controls which sentences ReadAll returns.
type IterOptions struct {
	DropDuplicates bool
	// MinLength drops sentences with fewer tokens.
	MinLength int
}

// DefaultIterOptions returns the options used for training.
func DefaultIterOptions() IterOptions {
	return IterOptions{DropDuplicates: true, MinLength: 1}
}

// Extensions lists the file suffixes treated as corpus files.
var Extensions = []string{".conll", ".conllu", ".txt"}

// Files returns the corpus files under the folder, relative and sorted.
func (s *Storage) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(s.Folder, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list corpus folder %s", s.Folder)
	}
	slices.Sort(files)
	return files, nil
}

// ReadAll reads every corpus file in the folder in name order.
func (s *Storage) ReadAll(opts IterOptions) ([]Sentence, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]bool)
	var out []Sentence
	for _, name := range files {
		f, err := os.Open(filepath.Join(s.Folder, filepath.FromSlash(name)))
		if err != nil {
			return nil, errors.Wrap(err, "open corpus file")
		}
		sentences, err := Read(f, name)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		kept := 0
		for _, sent := range sentences {
			if len(sent.Tokens) < opts.MinLength {
				continue
			}
			if opts.DropDuplicates {
				h := xxhash.Sum64String(strings.Join(sent.Words(), "\x00"))
				if seen[h] {
					continue
				}
				seen[h] = true
			}
			out = append(out, sent)
			kept++
		}
		slog.Debug("Read corpus file", "file", name, "sentences", len(sentences), "kept", kept)
	}
	return out, nil
}

// Read parses one corpus stream. A "# source: URL" comment assigns the
// URL's registrable domain as the group of the sentences that follow;
// otherwise the group is source itself.
func Read(r io.Reader, source string) ([]Sentence, error) {
	var out []Sentence
	group := source
	cur := Sentence{Source: source, Group: group}

	flush := func() {
		if len(cur.Tokens) > 0 {
			out = append(out, cur)
		}
		cur = Sentence{Source: source, Group: group}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			flush()
			continue
		case strings.HasPrefix(text, "#"):
			if url, ok := strings.CutPrefix(strings.TrimSpace(text[1:]), "source:"); ok {
				flush()
				group = GetDomain(strings.TrimSpace(url))
				cur.Group = group
			}
			continue
		}
		cols := strings.Fields(text)
		if len(cols) < 2 || len(cols) > 4 {
			return nil, errors.Errorf("%s:%d: expected 2 to 4 columns, got %d", source, line, len(cols))
		}
		if cur.Columns != 0 && cur.Columns != len(cols) {
			return nil, errors.Errorf("%s:%d: %d columns in a sentence of %d-column tokens", source, line, len(cols), cur.Columns)
		}
		cur.Columns = len(cols)
		tok := Token{Text: cols[0], POS: cols[1]}
		if len(cols) > 2 {
			tok.Chunk = unlabeled(cols[2])
		}
		if len(cols) > 3 {
			tok.Entity = unlabeled(cols[3])
		}
		cur.Tokens = append(cur.Tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", source)
	}
	flush()
	return out, nil
}

// Write renders sentences in the column format, using as many columns as
// the sentence carries (at least two).
func Write(w io.Writer, sentences []Sentence) error {
	bw := bufio.NewWriter(w)
	for i, s := range sentences {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		cols := max(s.Columns, 2)
		for _, t := range s.Tokens {
			fields := []string{t.Text, orDash(t.POS), orDash(t.Chunk), orDash(t.Entity)}
			if _, err := bw.WriteString(strings.Join(fields[:cols], "\t") + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// unlabeled maps the placeholder Write emits for a missing label back to
// the empty string.
func unlabeled(s string) string {
	if s == "_" {
		return ""
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "_"
	}
	return s
}

// GetDomain extracts the domain name from a URL (for grouped cross-validation).
func GetDomain(rawURL string) string {
	host := rawURL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	// "example.co.uk" groups as "example"
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}
