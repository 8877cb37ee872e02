package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/resilience"
)

const sheetName = "Sheet1"

// XLSXStore implements Store over one .xlsx workbook per catalog. It keeps
// no cache: every Load re-reads the file so edits made outside the process
// between runs are picked up.
type XLSXStore struct {
	paths map[Kind]string
}

// NewXLSXStore returns a store backed by the given workbook paths.
func NewXLSXStore(cinemasPath, moviesPath string) *XLSXStore {
	return &XLSXStore{
		paths: map[Kind]string{
			Cinemas: cinemasPath,
			Movies:  moviesPath,
		},
	}
}

// Path returns the backing file of kind.
func (s *XLSXStore) Path(kind Kind) string {
	return s.paths[kind]
}

func (s *XLSXStore) path(kind Kind) (string, error) {
	p, ok := s.paths[kind]
	if !ok || p == "" || Columns(kind) == nil {
		return "", eris.Errorf("catalog: unknown catalog %q", kind)
	}
	return p, nil
}

// Load implements Store.
func (s *XLSXStore) Load(ctx context.Context, kind Kind) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(kind)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		t := NewTable(kind)
		if err := writeWorkbook(p, t); err != nil {
			return nil, err
		}
		zap.L().Info("catalog: created", zap.String("catalog", string(kind)), zap.String("path", p))
		return t, nil
	} else if err != nil {
		return nil, eris.Wrapf(resilience.ErrCatalogRead, "catalog %s: stat %s: %v", kind, p, err)
	}

	t, err := readWorkbook(p)
	if err != nil {
		return nil, eris.Wrapf(resilience.ErrCatalogRead, "catalog %s: %v", kind, err)
	}
	if t.EnsureColumns(Columns(kind)) {
		zap.L().Info("catalog: added missing columns",
			zap.String("catalog", string(kind)),
			zap.Strings("columns", t.Columns),
		)
	}
	return t, nil
}

// Persist implements Store.
func (s *XLSXStore) Persist(ctx context.Context, kind Kind, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(kind)
	if err != nil {
		return err
	}
	if err := writeWorkbook(p, t); err != nil {
		return err
	}
	zap.L().Debug("catalog: saved", zap.String("catalog", string(kind)), zap.Int("rows", t.Len()))
	return nil
}

// Append implements Store.
func (s *XLSXStore) Append(ctx context.Context, kind Kind, values map[string]string) (int, error) {
	t, err := s.Load(ctx, kind)
	if err != nil {
		return 0, err
	}
	id := t.NextID()

	rec := make(map[string]string, len(values)+1)
	for k, v := range values {
		rec[k] = v
	}
	rec[ColID] = strconv.Itoa(id)
	t.AppendRecord(rec)

	if err := s.Persist(ctx, kind, t); err != nil {
		return id, err
	}
	return id, nil
}

func readWorkbook(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]

	t := &Table{}
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			for _, c := range cells {
				t.Columns = append(t.Columns, strings.TrimSpace(c))
			}
			continue
		}
		if blank(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	// Widen every row to the header.
	t.EnsureColumns(nil)
	for i, r := range t.Rows {
		if len(r) > len(t.Columns) {
			t.Rows[i] = r[:len(t.Columns)]
		}
	}
	return t, nil
}

func writeWorkbook(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(resilience.ErrCatalogWrite, "mkdir %s: %v", dir, err)
		}
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(resilience.ErrCatalogWrite, "add sheet: %v", err)
	}

	header := sheet.AddRow()
	for _, c := range t.Columns {
		header.AddCell().SetString(c)
	}
	idCol := t.Index(ColID)
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for j, v := range r {
			cell := row.AddCell()
			if j == idCol {
				if id, ok := ParseID(v); ok {
					cell.SetInt(id)
					continue
				}
			}
			cell.SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(resilience.ErrCatalogWrite, "save %s: %v", path, err)
	}
	return nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
