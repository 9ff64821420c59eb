package cli

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit/internal/corpus"
)

func (c *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the annotated training corpus",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var downloadFolder, downloadURL string
	var keep bool
	downloadCmd := &cobra.Command{
		Use:     "download",
		Short:   "Download and extract a corpus archive (.tar.gz)",
		Args:    cobra.NoArgs,
		Example: `  nlpkit data download --url https://example.org/corpus.tar.gz --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.dataDownload(cmd.Context(), downloadURL, downloadFolder, keep)
		},
	}
	downloadCmd.Flags().StringVar(&downloadURL, "url", "", "Archive URL")
	downloadCmd.Flags().StringVar(&downloadFolder, "data-folder", "data", "Destination folder for the corpus")
	downloadCmd.Flags().BoolVar(&keep, "keep", false, "Keep existing files in the destination folder")
	_ = downloadCmd.MarkFlagRequired("url")

	var statsFolder string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print sentence, token and tag counts of the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.dataStats(statsFolder)
		},
	}
	statsCmd.Flags().StringVar(&statsFolder, "data-folder", "data", "Corpus folder")

	dataCmd.AddCommand(downloadCmd, statsCmd)
	return dataCmd
}

func (c *CLI) dataDownload(ctx context.Context, url, dataFolder string, keep bool) error {
	target, err := filepath.Abs(dataFolder)
	if err != nil {
		return err
	}
	if !keep {
		if cwd, err := os.Getwd(); err == nil && (target == cwd || strings.HasPrefix(cwd, target+string(filepath.Separator))) {
			return fmt.Errorf("refusing to replace %s: it contains the working directory (use --keep)", dataFolder)
		}
		if target == filepath.Dir(target) {
			return fmt.Errorf("refusing to replace %s", dataFolder)
		}
	}

	slog.Info("Downloading corpus", "url", url)
	body, err := get(ctx, c.client, url, "")
	if err != nil {
		return fmt.Errorf("download data: %w", err)
	}
	defer func() { _ = body.Close() }()

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, ".nlpkit-data-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	count, err := extractArchive(body, staging)
	if err != nil {
		return err
	}
	if keep {
		err = mergeInto(staging, target)
	} else {
		err = replaceWith(staging, target)
	}
	if err != nil {
		return err
	}
	slog.Info("Corpus extracted", "files", count, "folder", dataFolder)
	return nil
}

// replaceWith swaps target for the fully extracted staging directory.
func replaceWith(staging, target string) error {
	if err := os.Chmod(staging, 0o755); err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove existing %s: %w", target, err)
	}
	if err := os.Rename(staging, target); err != nil {
		return fmt.Errorf("move corpus into %s: %w", target, err)
	}
	return nil
}

// mergeInto moves every extracted file into target, overwriting files with
// the same path and leaving the others alone.
func mergeInto(staging, target string) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return os.Rename(path, dest)
	})
}

// extractArchive unpacks a gzipped tarball into folder. A leading "data/"
// directory in the archive is mapped onto folder; entries escaping folder
// are rejected.
func extractArchive(r io.Reader, folder string) (int, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	root := filepath.Clean(folder)
	tr := tar.NewReader(gr)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read tar: %w", err)
		}

		name := strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")
		name = strings.TrimPrefix(name, "data/")
		if name == "data" || name == "" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if rel, err := filepath.Rel(root, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return count, fmt.Errorf("archive entry %q escapes %s", hdr.Name, folder)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return count, fmt.Errorf("create parent dir: %w", err)
			}
			f, err := os.Create(target)
			if err != nil {
				return count, fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return count, fmt.Errorf("write file %s: %w", target, err)
			}
			_ = f.Close()
			count++
		}
	}
	return count, nil
}

func (c *CLI) dataStats(folder string) error {
	sentences, err := corpus.NewStorage(folder).ReadAll(corpus.DefaultIterOptions())
	if err != nil {
		return err
	}
	tokens := 0
	groups := map[string]bool{}
	pos := map[string]int{}
	for _, s := range sentences {
		tokens += len(s.Tokens)
		groups[s.Group] = true
		for _, t := range s.Tokens {
			pos[t.POS]++
		}
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Sentences:\t%d\n", len(sentences))
	fmt.Fprintf(w, "Tokens:\t%d\n", tokens)
	fmt.Fprintf(w, "Groups:\t%d\n", len(groups))
	fmt.Fprintln(w, "\nTAG\tCOUNT")
	for _, tag := range slices.Sorted(maps.Keys(pos)) {
		fmt.Fprintf(w, "%s\t%d\n", tag, pos[tag])
	}
	return w.Flush()
}
