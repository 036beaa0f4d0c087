// Package carrier parses commission statement files from each carrier's
// native layout into normalized statement lines. Each adapter knows one
// carrier's quirks; the registry and detector pick the right one for a file.
package carrier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/commission-cli/internal/model"
)

// ErrStructure reports a file whose layout does not match the adapter,
// such as a missing sheet or an unrecognizable header row. It is distinct
// from per-row problems, which land in ParseResult.Skipped instead.
var ErrStructure = eris.New("carrier: file structure not recognized")

// SkipReason records one row the adapter could not use, with enough context
// to show the operator which row and why.
type SkipReason struct {
	Row    int
	Reason string
}

// ParseResult is the normalized output of one statement file.
type ParseResult struct {
	Lines   []model.StatementLine
	Skipped []SkipReason
}

// An Adapter parses one carrier's statement files.
type Adapter interface {
	// Name is the stable carrier key, e.g. "progressive".
	Name() string
	// DisplayName is the human-readable carrier name.
	DisplayName() string
	// Formats lists the file formats this carrier delivers statements in.
	Formats() []model.StatementFormat
	// Parse converts a raw statement file into normalized lines. Rows that
	// cannot be used are reported in the result, not as errors; a non-nil
	// error means the whole file is unusable.
	Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error)
}

func (r *ParseResult) skip(row int, reason string) {
	r.Skipped = append(r.Skipped, SkipReason{Row: row, Reason: reason})
}
