package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mapsearch/internal/db"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/filter"
)

// Aggregate runs a ranked query via FT.AGGREGATE. Rows come back in SORTBY order.
func (s *Store) Aggregate(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	args, err := buildAggregateArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseAggregateResult(raw)
}

func buildAggregateArgs(q *db.AggregateQuery) ([]string, error) {
	queryStr, err := buildQuery(q.Text, q.Phrases, q.Filter)
	if err != nil {
		return nil, err
	}

	args := []string{q.IndexName, queryStr}

	if q.WithScores {
		args = append(args, "ADDSCORES")
	}

	if len(q.Load) > 0 {
		args = append(args, "LOAD", strconv.Itoa(len(q.Load)))
		for _, f := range q.Load {
			args = append(args, "@"+f)
		}
	}

	for _, a := range q.Applies {
		args = append(args, "APPLY", a.Expr, "AS", a.As)
	}

	if len(q.SortBy) > 0 {
		args = append(args, "SORTBY", strconv.Itoa(2*len(q.SortBy)))
		for _, k := range q.SortBy {
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			args = append(args, "@"+k.Property, dir)
		}
		// SORTBY keeps only the top 10 rows unless MAX says otherwise.
		args = append(args, "MAX", strconv.Itoa(q.Offset+q.Limit))
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return args, nil
}

// --- Result parsing ---

// parseAggregateResult reads the RESP2 reply [total, row1, row2, ...] where
// every row is a flat [name, value, ...] array.
func parseAggregateResult(raw []rueidis.RedisMessage) (*db.AggregateResult, error) {
	if len(raw) == 0 {
		return &db.AggregateResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows := make([]map[string]string, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		fields, err := msg.ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}
		rows = append(rows, parseFieldPairs(fields))
	}

	return &db.AggregateResult{Total: int(total), Rows: rows}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildQuery intersects free-text terms, exact phrases and the filter.
// An empty result is rendered as the match-all query "*".
func buildQuery(text string, phrases []string, expr filter.Expr) (string, error) {
	var parts []string

	if t := buildTextQuery(text); t != "" {
		parts = append(parts, t)
	}
	for _, p := range phrases {
		if t := buildTextQuery(p); t != "" {
			parts = append(parts, `"`+t+`"`)
		}
	}

	f, err := buildFilter(expr)
	if err != nil {
		return "", err
	}
	if f != "" {
		parts = append(parts, f)
	}

	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, " "), nil
}

// buildTextQuery splits user text into plain terms the way the indexer
// tokenizes stored text: every separator rune breaks a word, so "boss-rush"
// and "stars>5" search for their parts. Colons would otherwise address
// fields and are separators too.
func buildTextQuery(s string) string {
	words := strings.FieldsFunc(s, isTextSeparator)
	for i, w := range words {
		words[i] = escapeQuery(w)
	}
	return strings.Join(words, " ")
}

// textSeparators are the default tokenizer separators of the query engine.
const textSeparators = ",.<>{}[]\"':;!@#$%^&*()-+=~"

func isTextSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(textSeparators, r)
}

// buildFilter translates a filter tree into query syntax. Match-all renders
// as the empty string.
func buildFilter(e filter.Expr) (string, error) {
	switch e.Kind() {
	case filter.KindAll:
		return "", nil

	case filter.KindEquals:
		return buildTagFilter(e.Field(), e.Value()), nil

	case filter.KindRange:
		return buildNumericFilter(e.Field(), e.Lower(), e.Upper()), nil

	case filter.KindExists:
		// Presence is probed as an unbounded numeric range, so Exists
		// applies to NUMERIC fields only.
		return buildNumericFilter(e.Field(), nil, nil), nil

	case filter.KindAnd, filter.KindOr:
		left, err := buildFilter(e.Left())
		if err != nil {
			return "", err
		}
		right, err := buildFilter(e.Right())
		if err != nil {
			return "", err
		}
		op := " "
		if e.Kind() == filter.KindOr {
			op = " | "
		}
		return "(" + left + op + right + ")", nil

	case filter.KindNot:
		if e.Left().IsAll() {
			return "", db.ErrUnsatisfiable
		}
		inner, err := buildFilter(e.Left())
		if err != nil {
			return "", err
		}
		return "-" + inner, nil
	}
	return "", fmt.Errorf("unsupported filter kind %s", e.Kind())
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericFilter(key string, lower, upper *filter.Bound) string {
	minBound := "-inf"
	maxBound := "+inf"

	if lower != nil {
		minBound = formatNumber(lower.Value())
		if !lower.IsInclusive() {
			minBound = "(" + minBound
		}
	}
	if upper != nil {
		maxBound = formatNumber(upper.Value())
		if !upper.IsInclusive() {
			maxBound = "(" + maxBound
		}
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- Escaping ---

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

// queryEscaper covers query operators that survive tokenization.
var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`?`, `\?`,
	"`", "\\`",
)
