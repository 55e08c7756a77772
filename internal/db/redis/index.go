package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/mapsearch/internal/db"
)

// Server replies that identify index lifecycle conditions.
const (
	replyIndexExists  = "index already exists"
	replyUnknownIndex = "unknown index name"
)

var fieldKeywords = map[db.IndexFieldType]string{
	db.IndexFieldNumeric: "NUMERIC",
	db.IndexFieldTag:     "TAG",
	db.IndexFieldText:    "TEXT",
}

// CreateIndex creates an FT index over hashes from def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}
	err = s.do(ctx, s.b().Arbitrary(db.OpCreateIndex).Args(args...).Build()).Error()
	return indexErr(db.OpCreateIndex, err)
}

// DropIndex removes an FT index by name. Indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	err := s.do(ctx, s.b().Arbitrary(db.OpDropIndex).Args(name).Build()).Error()
	return indexErr(db.OpDropIndex, err)
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := indexErr(db.OpIndexInfo, s.do(ctx, s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()).Error())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexNotFound):
		return false, nil
	}
	return false, err
}

// indexErr maps FT lifecycle replies onto db sentinels.
func indexErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, replyIndexExists):
		return db.ErrIndexExists
	case isRedisErr(err, replyUnknownIndex):
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: op, Err: err}
}

// buildCreateArgs renders the FT.CREATE arguments after the command name:
// name ON HASH [PREFIX n p...] [STOPWORDS 0] SCHEMA field...
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(append(args, "PREFIX", strconv.Itoa(n)), def.Prefixes...)
	}
	if def.NoStopwords {
		args = append(args, "STOPWORDS", "0")
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}
	kw, ok := fieldKeywords[f.Type]
	if !ok {
		return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
	}

	args := []string{f.Name, kw}
	switch f.Type {
	case db.IndexFieldText:
		if f.TextWeight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
		}
	case db.IndexFieldTag:
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args, nil
}
