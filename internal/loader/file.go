package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/indexer/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

const (
	FormatAuto   = "auto"
	FormatLines  = "lines"
	FormatBlocks = "blocks"

	urlMarker     = "#url"
	contentMarker = "#content"

	defaultMaxLine = 64 << 20
)

// FileLoader reads a text corpus in one of two layouts:
//
//	lines:  url and content on alternating lines
//	blocks: "#url <url>" and "#content <text>" lines, blocks separated by a
//	        blank line; blocks missing either field are skipped
//
// Auto picks blocks when the first non-blank line starts with "#url".
type FileLoader struct {
	path   string
	format string
	limits corpus.Limits
}

func NewFileLoader(path, format string, limits corpus.Limits) *FileLoader {
	if format == "" {
		format = FormatAuto
	}
	return &FileLoader{path: path, format: format, limits: limits}
}

func (l *FileLoader) Source() string {
	return "file:" + l.path
}

func (l *FileLoader) Load(ctx context.Context) ([]corpus.Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError,
			"opening corpus %s: %v", l.path, err)
	}
	defer f.Close()

	entries, err := Read(ctx, f, l.format, l.limits)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", l.path, err)
	}
	slog.Default().With("component", "loader").Info("corpus file loaded",
		"path", l.path,
		"format", l.format,
		"documents", len(entries),
	)
	return entries, nil
}

// Read parses r in the given format.
func Read(ctx context.Context, r io.Reader, format string, limits corpus.Limits) ([]corpus.Entry, error) {
	var src io.Reader = r
	if format == FormatAuto || format == "" {
		detected, rest, err := detect(bufio.NewReader(r))
		if err != nil {
			return nil, err
		}
		format, src = detected, rest
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine(limits))
	c := &collector{limits: limits}
	var err error
	switch format {
	case FormatLines:
		err = readLines(ctx, sc, c)
	case FormatBlocks:
		err = readBlocks(ctx, sc, c)
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"unknown corpus format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := scanErr(sc); err != nil {
		return nil, err
	}
	return c.entries, nil
}

// detect classifies the input by its first non-blank line. Input consumed
// while looking is replayed through the returned reader, so leading blank
// lines of any length keep their meaning for the lines format.
func detect(br *bufio.Reader) (string, io.Reader, error) {
	var skipped bytes.Buffer
	for {
		chunk, err := br.ReadSlice('\n')
		if trimmed := bytes.TrimSpace(chunk); len(trimmed) > 0 {
			format := FormatLines
			if bytes.HasPrefix(trimmed, []byte(urlMarker)) {
				format = FormatBlocks
			}
			head := bytes.NewReader(bytes.Clone(chunk))
			return format, io.MultiReader(&skipped, head, br), nil
		}
		skipped.Write(chunk)
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF):
			return FormatLines, &skipped, nil
		default:
			return "", nil, apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "reading corpus: %v", err)
		}
	}
}

func readLines(ctx context.Context, sc *bufio.Scanner, c *collector) error {
	for i := 0; sc.Scan(); i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		url := sc.Text()
		content := ""
		if sc.Scan() {
			content = sc.Text()
		} else if strings.TrimSpace(url) == "" {
			break
		}
		if err := c.add(url, content); err != nil {
			return err
		}
	}
	return nil
}

func readBlocks(ctx context.Context, sc *bufio.Scanner, c *collector) error {
	var url, content string
	flush := func() error {
		defer func() { url, content = "", "" }()
		if url == "" || content == "" {
			return nil
		}
		return c.add(url, content)
	}
	for i := 0; sc.Scan(); i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, contentMarker):
			content = strings.TrimSpace(line[len(contentMarker):])
		case strings.HasPrefix(line, urlMarker):
			url = strings.TrimSpace(line[len(urlMarker):])
		case strings.TrimSpace(line) == "":
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// maxLine bounds a single line to the longest field the limits allow plus
// room for a block marker.
func maxLine(limits corpus.Limits) int {
	if limits.MaxURLLength <= 0 || limits.MaxContentLength <= 0 {
		return defaultMaxLine
	}
	return max(limits.MaxURLLength, limits.MaxContentLength) + len(contentMarker) + 3
}

func scanErr(sc *bufio.Scanner) error {
	err := sc.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bufio.ErrTooLong):
		return apperrors.Newf(apperrors.ErrCapacityExceeded, http.StatusRequestEntityTooLarge,
			"corpus line exceeds the configured url/content limits")
	default:
		return apperrors.Newf(apperrors.ErrIO, http.StatusInternalServerError, "reading corpus: %v", err)
	}
}
