package roster

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/model"
)

var (
	ErrNoRows         = errors.New("roster: no data rows")
	ErrMissingColumns = errors.New("roster: required column missing")
	ErrMissingField   = errors.New("roster: required field empty")
)

// clusterCodeLen is the length of a group code that carries a 2-character
// suffix after its 4-character base (e.g. "A3H1xx" -> "A3H1").
const (
	clusterCodeLen = 6
	baseCodeLen    = 4
)

// BaseCode returns the cluster lookup key for a group code.
func BaseCode(group string) string {
	r := []rune(group)
	if len(r) == clusterCodeLen {
		return string(r[:baseCodeLen])
	}
	return group
}

// Expand turns spreadsheet rows into classes. Each row contributes its
// teacher to every class code its group maps to.
func Expand(sheet *Sheet, cols config.ColumnsConfig, mapping config.ClusterMapping) (*model.ClassSet, error) {
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil, ErrNoRows
	}
	for _, col := range []string{cols.Teacher, cols.Group} {
		if !slices.Contains(sheet.Header, col) {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumns, col)
		}
	}

	classes := model.NewClassSet()
	for i, row := range sheet.Rows {
		teacher := strings.TrimSpace(row[cols.Teacher])
		group := strings.TrimSpace(row[cols.Group])
		if teacher == "" || group == "" {
			return nil, fmt.Errorf("%w: data row %d", ErrMissingField, i+1)
		}

		base := BaseCode(group)
		if codes, ok := mapping[base]; ok && len(codes) > 0 {
			for _, code := range codes {
				classes.Add(code, teacher)
			}
			continue
		}
		classes.Add(base, teacher)
	}

	appLog.Debug("roster expanded", "rows", len(sheet.Rows), "classes", classes.Len())
	return classes, nil
}
