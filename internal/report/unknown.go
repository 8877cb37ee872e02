package report

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// UnknownLine renders one movies-to-add entry.
func UnknownLine(m model.UnknownMovie) string {
	dur := ""
	if m.DurationMinutes != nil {
		dur = strconv.Itoa(*m.DurationMinutes)
	}
	return fmt.Sprintf(`movie_title : "%s", duration : "%s";`, m.Title, dur)
}

// AppendUnknown appends the entries of movies that are not already listed
// in the file at path, creating it when missing. It returns how many lines
// were added.
func AppendUnknown(path string, movies []model.UnknownMovie) (int, error) {
	if len(movies) == 0 {
		return 0, nil
	}

	existing, err := readLines(path)
	if err != nil {
		return 0, err
	}

	var fresh []string
	for _, m := range movies {
		line := UnknownLine(m)
		if _, ok := existing[line]; ok {
			continue
		}
		existing[line] = struct{}{}
		fresh = append(fresh, line)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "unknown movies: create dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, eris.Wrap(err, "unknown movies: open")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range fresh {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return 0, eris.Wrap(err, "unknown movies: write")
		}
	}
	if err := w.Flush(); err != nil {
		return 0, eris.Wrap(err, "unknown movies: flush")
	}
	return len(fresh), nil
}

func readLines(path string) (map[string]struct{}, error) {
	lines := make(map[string]struct{})
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lines, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "unknown movies: open")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines[line] = struct{}{}
		}
	}
	return lines, eris.Wrap(sc.Err(), "unknown movies: read")
}
