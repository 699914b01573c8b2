package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminatedString is returned when a migration ends inside a quoted literal.
var ErrUnterminatedString = errors.New("unterminated string literal")

// execFunc runs one unit of SQL against a backend.
type execFunc func(ctx context.Context, sql string) error

// apply runs migs in order and stops at the first failure.
func apply(ctx context.Context, migs []Migration, exec execFunc) error {
	for _, m := range migs {
		if err := exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// perStatement adapts exec to drivers that accept a single statement per call.
func perStatement(exec execFunc) execFunc {
	return func(ctx context.Context, sql string) error {
		stmts, err := Statements(sql)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if err := exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// Statements splits sql at semicolons outside single-quoted literals.
// Line comments are dropped; '' inside a literal is an escaped quote.
func Statements(sql string) ([]string, error) {
	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inString:
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}
		case ch == '\'':
			inString = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inString {
		return nil, ErrUnterminatedString
	}
	flush()
	return stmts, nil
}
