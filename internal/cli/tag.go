package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit"
	"github.com/happyhackingspace/nlpkit/internal/corpus"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var flags trainFlags
	var text string
	var format string
	var forceHTML bool

	cmd := &cobra.Command{
		Use:   "tag [url-or-file]",
		Short: "Train on the corpus, then annotate text, a file or a web page",
		Args:  cobra.MaximumNArgs(1),
		Example: `  nlpkit tag --text "Ada Lovelace visited London."
  nlpkit tag https://example.com --format conll
  cat article.txt | nlpkit tag -p Algorithm=CRF`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "conll" {
				return fmt.Errorf("unknown format %q (want json or conll)", format)
			}
			cfg, err := flags.config(c, cmd)
			if err != nil {
				return err
			}

			var content, source string
			switch {
			case text != "":
				content, source = text, "text"
			case len(args) == 1:
				content, err = c.fetchContent(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				source = args[0]
			case c.stdin != os.Stdin || !isStdinTerminal():
				content, source, err = c.readFromStdin(cmd.Context())
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("no input: pass a URL or file, --text, or pipe to stdin")
			}

			pipeline, report, err := nlpkit.Train(cmd.Context(), flags.dataFolder, cfg)
			if err != nil {
				return err
			}
			slog.Debug("Pipeline trained", "run", report.RunID, "sentences", report.Sentences)

			var doc *nlpkit.Document
			if forceHTML || isURL(source) || looksLikeHTML(content) {
				slog.Debug("Annotating HTML", "source", source)
				doc, err = pipeline.AnnotateHTML(content)
			} else {
				doc, err = pipeline.Annotate(content)
			}
			if err != nil {
				return err
			}

			if format == "conll" {
				return corpus.Write(c.stdout, toCorpus(doc, source))
			}
			output, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(append(output, '\n'))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&text, "text", "t", "", "Annotate this text instead of reading input")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or conll")
	cmd.Flags().BoolVar(&forceHTML, "html", false, "Treat the input as HTML")
	return cmd
}

// toCorpus converts an annotated document to corpus sentences so it can
// be written in the training format.
func toCorpus(doc *nlpkit.Document, source string) []corpus.Sentence {
	out := make([]corpus.Sentence, 0, len(doc.Sentences))
	for _, s := range doc.Sentences {
		sent := corpus.Sentence{Source: source, Columns: 4, Tokens: make([]corpus.Token, len(s.Tokens))}
		for i, tok := range s.Tokens {
			sent.Tokens[i] = corpus.Token{Text: tok.Text, POS: tok.POS, Chunk: tok.Chunk, Entity: tok.Entity}
		}
		out = append(out, sent)
	}
	return out
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	if len(head) > 512 {
		head = head[:512]
	}
	if !strings.HasPrefix(head, "<") {
		return false
	}
	for _, tag := range []string{"<!doctype html", "<html", "<head", "<body", "<p", "<div"} {
		if strings.Contains(head, tag) {
			return true
		}
	}
	return false
}

func (c *CLI) fetchContent(ctx context.Context, target string) (string, error) {
	if isURL(target) {
		return fetchPage(ctx, c.client, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return true
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func (c *CLI) readFromStdin(ctx context.Context) (string, string, error) {
	slog.Debug("Reading from stdin")
	body, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return "", "", fmt.Errorf("stdin is empty")
	}

	if isURL(content) && !strings.ContainsAny(content, " \n\t") {
		slog.Debug("Stdin contains URL", "url", content)
		html, err := fetchPage(ctx, c.client, content)
		if err != nil {
			return "", "", err
		}
		return html, content, nil
	}

	return content, "stdin", nil
}
