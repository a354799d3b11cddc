// Package table reads and writes lepton mass tables.
//
// A table is UTF-8 CSV with the fixed header
//
//	name,symbol,msbar_mass_mev,pole_mass_mev,mu_mev,alpha_mu
//
// and one row per particle. Rows are numbered the way a spreadsheet shows
// them: the header is row 1 and the first particle is row 2. Every error
// names the row and column it concerns.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
)

// Column names.
const (
	ColName   = "name"
	ColSymbol = "symbol"
	ColMSBar  = "msbar_mass_mev"
	ColPole   = "pole_mass_mev"
	ColMu     = "mu_mev"
	ColAlpha  = "alpha_mu"
)

// Header is the required column set, in output order.
var Header = []string{ColName, ColSymbol, ColMSBar, ColPole, ColMu, ColAlpha}

// Row is one particle.
type Row struct {
	// Line is the physical line the row starts on; the header is line 1.
	Line   int     `json:"row"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	MSBar  float64 `json:"msbar_mass_mev"`
	Pole   float64 `json:"pole_mass_mev"`
	Mu     float64 `json:"mu_mev"`
	Alpha  float64 `json:"alpha_mu"`
}

// Options relaxes Load.
type Options struct {
	// PoleOptional lets pole_mass_mev cells be blank; they load as zero.
	// Used when the pole masses are about to be computed.
	PoleOptional bool
}

// LoadFile opens path and loads it.
func LoadFile(path string, opts Options) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot open table: %v", err)
		e.File = path
		return nil, e
	}
	defer f.Close()

	rows, err := LoadWith(f, opts)
	if err != nil {
		var e *evaluator.Error
		if errors.As(err, &e) && e.File == "" {
			e.File = path
		}
		return nil, err
	}
	return rows, nil
}

// Load reads a mass table.
//
// Columns may appear in any order and extra columns are ignored, but each
// required column must be present in the header, and every row must have
// a non-empty, finite numeric value in each numeric column.
func Load(r io.Reader) ([]Row, error) {
	return LoadWith(r, Options{})
}

// LoadWith is Load with options.
func LoadWith(r io.Reader, opts Options) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "table is empty")
	}
	if err != nil {
		return nil, malformed(err)
	}

	headerLine, _ := cr.FieldPos(0)

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range Header {
		if _, ok := index[col]; !ok {
			e := evaluator.NewInputError(evaluator.ErrCodeMissingColumn, "header has no column %q", col)
			e.Row = headerLine
			e.Column = col
			return nil, e
		}
	}

	// Rows are numbered by the physical line they start on, counting the
	// header and any blank lines the reader skips.
	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		line, _ := cr.FieldPos(0)

		cell := func(col string) (string, error) {
			i := index[col]
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				return "", evaluator.MissingCell(line, col)
			}
			return strings.TrimSpace(record[i]), nil
		}
		number := func(col string) (float64, error) {
			s, err := cell(col)
			if err != nil {
				return 0, err
			}
			v, perr := strconv.ParseFloat(s, 64)
			if perr != nil || !isFinite(v) {
				e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "row %d column %q is not a finite number: %q", line, col, s)
				e.Row = line
				e.Column = col
				return 0, e
			}
			return v, nil
		}

		row := Row{Line: line}
		if row.Name, err = cell(ColName); err != nil {
			return nil, err
		}
		if row.Symbol, err = cell(ColSymbol); err != nil {
			return nil, err
		}
		if row.MSBar, err = number(ColMSBar); err != nil {
			return nil, err
		}
		if opts.PoleOptional && (index[ColPole] >= len(record) || strings.TrimSpace(record[index[ColPole]]) == "") {
			row.Pole = 0
		} else if row.Pole, err = number(ColPole); err != nil {
			return nil, err
		}
		if row.Mu, err = number(ColMu); err != nil {
			return nil, err
		}
		if row.Alpha, err = number(ColAlpha); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func malformed(err error) error {
	e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "cannot parse table: %v", err)
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		e.Row = perr.StartLine
	}
	return e
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Write writes rows with the fixed header. Numbers use the shortest
// representation that round-trips.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Name,
			r.Symbol,
			formatFloat(r.MSBar),
			formatFloat(r.Pole),
			formatFloat(r.Mu),
			formatFloat(r.Alpha),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func poleParams(r Row) evaluator.Params {
	return evaluator.Params{"m_msbar": r.MSBar, "mu": r.Mu, "alpha": r.Alpha}
}

// ComputePoles returns a copy of rows with pole_mass_mev recomputed from
// the MS-bar mass, scale and coupling of each row.
func ComputePoles(rows []Row) ([]Row, error) {
	f := physics.MustLookup("pole_mass")
	out := make([]Row, len(rows))
	for i, r := range rows {
		pole, err := evaluator.Evaluate(f, poleParams(r))
		if err != nil {
			return nil, rowError(err, r)
		}
		r.Pole = pole
		out[i] = r
	}
	return out, nil
}

// VerifyPoles checks every stated pole mass against the one-loop relation
// and returns a ConsistencyError for the first row that disagrees by more
// than relTol (relative to the computed value).
func VerifyPoles(rows []Row, relTol float64) error {
	f := physics.MustLookup("pole_mass")
	for _, r := range rows {
		want, err := evaluator.Evaluate(f, poleParams(r))
		if err != nil {
			return rowError(err, r)
		}
		if err := evaluator.Agree(r.Name+" pole mass", r.Pole, want, relTol*math.Abs(want)); err != nil {
			return rowError(err, r)
		}
	}
	return nil
}

// paramColumns maps pole_mass parameters to the columns they are read from.
var paramColumns = map[string]string{
	"m_msbar": ColMSBar,
	"mu":      ColMu,
	"alpha":   ColAlpha,
}

// rowError stamps err with the row and the column it concerns: the
// column of the parameter it names, else the pole mass.
func rowError(err error, r Row) error {
	var e *evaluator.Error
	if errors.As(err, &e) && e.Row == 0 {
		e.Row = r.Line
		if e.Column == "" {
			e.Column = ColPole
			if col, ok := paramColumns[e.Param]; ok {
				e.Column = col
			}
		}
	}
	return err
}
