package target

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"insuralytics/internal/core"
)

// Goal CSV header columns.
const (
	HeaderBusinessType = "业务类型"
	HeaderAnnualTarget = "年度目标（万）"
)

var ErrInvalidHeader = errors.New("invalid goal csv header")

// DefaultBusinessTypes is the validation list for imported goal files.
var DefaultBusinessTypes = []string{
	core.OverallBusinessType,
	"非营业客车新车",
	"非营业客车旧车非过户",
	"非营业客车旧车过户",
	"1吨以下非营业货车",
	"1吨以上非营业货车",
	"2吨以下营业货车",
	"2-9吨营业货车",
	"9-10吨营业货车",
	"10吨以上营业货车（普货）",
	"10吨以上营业货车（牵引）",
	"自卸",
	"特种车",
	"摩托车",
	"出租车",
	"网约车",
	"其他",
}

// KnownSet is a set of normalized business-type labels.
type KnownSet map[string]struct{}

// NewKnownSet builds a set from labels.
func NewKnownSet(labels []string) KnownSet {
	ks := make(KnownSet, len(labels))
	for _, l := range core.NormalizeAll(labels) {
		ks[l] = struct{}{}
	}
	return ks
}

// Contains reports whether label is known after normalization.
func (ks KnownSet) Contains(label string) bool {
	_, ok := ks[core.Normalize(label)]
	return ok
}

// ParseGoalCSV reads a goal file.
//
// Rows keep their input order. Blank lines are ignored. A repeated business
// type is kept as its own row; NewTable sums such rows. Rows with an unknown
// business type or a malformed or negative target are reported together in
// a *core.ValidationError; the valid rows are returned alongside so the
// caller can decide whether to proceed.
func ParseGoalCSV(r io.Reader, known KnownSet) ([]GoalRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read goal csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read goal csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return parseGoalRecords(records, lines, known)
}

// ParseGoalValues applies the CSV row rules to an already split table,
// such as a spreadsheet range. The first row must be the header.
func ParseGoalValues(values [][]string, known KnownSet) ([]GoalRow, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	if err := checkHeader(values[0]); err != nil {
		return nil, err
	}
	var records [][]string
	var lines []int
	for i, v := range values[1:] {
		if isBlank(v) {
			continue
		}
		records = append(records, v)
		lines = append(lines, i+2)
	}
	return parseGoalRecords(records, lines, known)
}

func parseGoalRecords(records [][]string, lines []int, known KnownSet) ([]GoalRow, error) {
	var (
		rows   []GoalRow
		failed []core.RowError
	)
	for i, rec := range records {
		line := lines[i]
		if isBlank(rec) {
			continue
		}
		raw := strings.Join(rec, ",")
		if len(rec) < 2 {
			failed = append(failed, core.RowError{Line: line, Value: raw, Reason: "expected 2 columns"})
			continue
		}
		label := core.Normalize(rec[0])
		switch {
		case label == "":
			failed = append(failed, core.RowError{Line: line, Value: raw, Reason: "empty business type"})
			continue
		case known != nil && !known.Contains(label):
			failed = append(failed, core.RowError{Line: line, Value: rec[0], Reason: "unknown business type"})
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			failed = append(failed, core.RowError{Line: line, Value: rec[1], Reason: "malformed target value"})
			continue
		}
		if value.IsNegative() {
			failed = append(failed, core.RowError{Line: line, Value: rec[1], Reason: "negative target value"})
			continue
		}
		rows = append(rows, GoalRow{Dimension: core.DimBusinessType, Label: strings.TrimSpace(rec[0]), Target: value})
	}
	if len(failed) > 0 {
		return rows, &core.ValidationError{Rows: failed}
	}
	return rows, nil
}

// WriteGoalCSV writes the business-type rows under the import header,
// one line per row with a trailing newline.
func WriteGoalCSV(w io.Writer, rows []GoalRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{HeaderBusinessType, HeaderAnnualTarget}); err != nil {
		return fmt.Errorf("write goal csv header: %w", err)
	}
	for _, r := range rows {
		if r.Dimension != core.DimBusinessType {
			continue
		}
		if err := cw.Write([]string{r.Label, r.Target.String()}); err != nil {
			return fmt.Errorf("write goal csv row %q: %w", r.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AdjustRows returns a copy of rows with delta added to every target.
func AdjustRows(rows []GoalRow, delta decimal.Decimal) []GoalRow {
	out := make([]GoalRow, len(rows))
	for i, r := range rows {
		r.Target = r.Target.Add(delta)
		if r.Target.IsNegative() {
			r.Target = decimal.Zero
		}
		out[i] = r
	}
	return out
}

func checkHeader(header []string) error {
	if len(header) < 2 {
		return fmt.Errorf("%w: got %v", ErrInvalidHeader, header)
	}
	first := strings.TrimPrefix(header[0], "\ufeff")
	if core.Normalize(first) != core.Normalize(HeaderBusinessType) ||
		core.Normalize(header[1]) != core.Normalize(HeaderAnnualTarget) {
		return fmt.Errorf("%w: got %v, want [%s %s]", ErrInvalidHeader, header, HeaderBusinessType, HeaderAnnualTarget)
	}
	return nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
