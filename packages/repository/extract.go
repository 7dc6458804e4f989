package repository

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"git-analyse/types"
)

// NoExtension is recorded for entries whose name has no extension.
const NoExtension = "(none)"

var errNotUTF8 = errors.New("content is not valid UTF-8 text")

// Extractor turns a ZIP archive into a text corpus plus a file type inventory.
type Extractor struct {
	extensions  map[string]struct{}
	fileHeaders bool
}

// NewExtractor builds an extractor. An empty extensions list selects the
// built-in language table. With fileHeaders set, every included entry is
// preceded by a "## File: <path>" line.
func NewExtractor(extensions []string, fileHeaders bool) *Extractor {
	set := defaultExtensions()
	if len(extensions) > 0 {
		set = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			set[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}
	return &Extractor{extensions: set, fileHeaders: fileHeaders}
}

// FileExtension returns the substring after the last "." of the entry's base
// name, or NoExtension.
func FileExtension(name string) string {
	base := path.Base(name)
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return NoExtension
	}
	return base[idx+1:]
}

// Recognized reports whether content with this extension goes into the corpus.
func (e *Extractor) Recognized(ext string) bool {
	_, ok := e.extensions[strings.ToLower(ext)]
	return ok
}

// Extract reads every entry in archive order. Each file contributes its
// extension to FileTypes; only recognized files contribute text. A recognized
// entry that cannot be decoded aborts the whole extraction.
func (e *Extractor) Extract(archive []byte) (*types.Corpus, error) {
	slog.Info("Extracting ZIP archive", "bytes", len(archive))

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, fmt.Errorf("%w: %v", types.ErrArchiveCorrupt, err)
	}

	corpus := &types.Corpus{FileTypes: make(map[string]struct{})}
	var text strings.Builder
	included := 0

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		ext := FileExtension(f.Name)
		corpus.FileTypes[ext] = struct{}{}

		if !e.Recognized(ext) {
			slog.Debug("Skipped file", "name", f.Name, "extension", ext)
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			return nil, &types.EntryReadFailedError{Entry: f.Name, Err: err}
		}

		if e.fileHeaders {
			fmt.Fprintf(&text, "## File: %s\n", f.Name)
			text.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				text.WriteString("\n")
			}
		} else {
			text.WriteString(content)
		}
		included++
		slog.Debug("Processed file", "name", f.Name, "language", getLanguage(ext))
	}

	corpus.Text = text.String()
	slog.Info("ZIP archive extraction completed",
		"entries", len(zr.File),
		"included", included,
		"fileTypes", len(corpus.FileTypes),
		"chars", utf8.RuneCountInString(corpus.Text))
	return corpus, nil
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errNotUTF8
	}
	return string(data), nil
}
