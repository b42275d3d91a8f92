// Package dataset loads two-line balancing instances from folders holding
// z1.txt/z2.txt (processing times per line) and o1.txt/o2.txt (precedence
// pairs per line), optionally unpacked from a zip archive first.
package dataset

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"palbp/internal/line"
)

const (
	TimesLine1 = "z1.txt"
	TimesLine2 = "z2.txt"
	PrecLine1  = "o1.txt"
	PrecLine2  = "o2.txt"
)

// Dataset is one discovered folder.
type Dataset struct {
	Name string
	Dir  string
}

// ExtractZip unpacks archive into dest. Entries resolving outside dest are
// rejected.
func ExtractZip(ctx context.Context, archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archive, err)
	}
	defer r.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, dest)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// Discover walks root and returns every directory holding both processing
// time files, sorted by path. Names are relative to root.
func Discover(root string) ([]Dataset, error) {
	var out []Dataset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if exists(filepath.Join(path, TimesLine1)) && exists(filepath.Join(path, TimesLine2)) {
			name, err := filepath.Rel(root, path)
			if err != nil || name == "." {
				name = filepath.Base(path)
			}
			out = append(out, Dataset{Name: filepath.ToSlash(name), Dir: path})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// ReadPrecedence parses "a b" pairs of 1-based task numbers, one per line,
// and returns them 0-based. Quotes around numbers are stripped. Blank lines
// are skipped; malformed lines are logged and skipped.
func ReadPrecedence(r io.Reader, source string) ([]line.Precedence, error) {
	var out []line.Precedence
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) != 2 {
			slog.Warn("skipping invalid precedence line", slog.String("source", source), slog.Int("line", n), slog.String("text", text))
			continue
		}
		a, errA := atoiQuoted(parts[0])
		b, errB := atoiQuoted(parts[1])
		if err := errors.Join(errA, errB); err != nil {
			slog.Warn("skipping unparsable precedence line", slog.String("source", source), slog.Int("line", n), slog.Any("error", err))
			continue
		}
		out = append(out, line.Precedence{Before: a - 1, After: b - 1})
	}
	return out, sc.Err()
}

// ReadProcessingTimes parses one integer per line. Lines that do not parse
// are logged and skipped.
func ReadProcessingTimes(r io.Reader, source string) ([]int, error) {
	var out []int
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		v, err := atoiQuoted(text)
		if err != nil {
			slog.Warn("skipping invalid processing time", slog.String("source", source), slog.Int("line", n), slog.Any("error", err))
			continue
		}
		out = append(out, v)
	}
	return out, sc.Err()
}

func atoiQuoted(s string) (int, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	return strconv.Atoi(s)
}

// Load reads one dataset folder into a validated instance. Precedence files
// are optional; pairs naming tasks outside their line are dropped.
func Load(dir string, robots []bool) (*line.Instance, error) {
	t1, err := readFile(dir, TimesLine1, ReadProcessingTimes, true)
	if err != nil {
		return nil, err
	}
	t2, err := readFile(dir, TimesLine2, ReadProcessingTimes, true)
	if err != nil {
		return nil, err
	}
	o1, err := readFile(dir, PrecLine1, ReadPrecedence, false)
	if err != nil {
		return nil, err
	}
	o2, err := readFile(dir, PrecLine2, ReadPrecedence, false)
	if err != nil {
		return nil, err
	}

	n1, n2 := len(t1), len(t2)
	pt := make([]int, 0, n1+n2)
	pt = append(pt, t1...)
	pt = append(pt, t2...)

	inst, err := line.NewInstance(pt, n1, n2, robots,
		keepWithin(o1, 0, n1, filepath.Join(dir, PrecLine1)),
		keepWithin(o2, n1, n1+n2, filepath.Join(dir, PrecLine2)),
	)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dir, err)
	}
	return inst, nil
}

func readFile[T any](dir, name string, parse func(io.Reader, string) ([]T, error), required bool) ([]T, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			slog.Warn("precedence file missing, line is unconstrained", slog.String("source", path))
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return parse(f, path)
}

func keepWithin(cons []line.Precedence, start, end int, source string) []line.Precedence {
	out := cons[:0]
	for _, c := range cons {
		if c.Before < start || c.Before >= end || c.After < start || c.After >= end {
			slog.Warn("dropping precedence outside its line",
				slog.String("source", source), slog.Int("before", c.Before+1), slog.Int("after", c.After+1))
			continue
		}
		out = append(out, c)
	}
	return out
}
