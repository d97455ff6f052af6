// Package paging implements keyset pagination for member and event
// lists backed by Mongo.
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in paged lists. Kept as an int
// because call sites add/subtract before casting to int64 for
// Find().SetLimit().
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the 1-based "start" query parameter.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Result holds the output of TrimPage for keyset pagination.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a fetched slice for keyset pagination. Call this after
// fetching PageSize+1 rows. It modifies the slice in place and returns
// pagination indicators.
//
// When going backwards (before != ""):
//   - If len > PageSize, trim the first element (older page exists)
//   - HasNext is always true (we came from somewhere)
//
// When going forwards or on first page:
//   - If len > PageSize, trim to PageSize (next page exists)
//   - HasPrev is true only if after != ""
func TrimPage[T any](rows *[]T, before, after string) Result {
	orig := len(*rows)
	var hasPrev, hasNext bool

	if before != "" {
		if orig > PageSize {
			*rows = (*rows)[1:]
			hasPrev = true
		}
		hasNext = true
	} else {
		if orig > PageSize {
			*rows = (*rows)[:PageSize]
			hasNext = true
		}
		hasPrev = after != ""
	}

	return Result{HasPrev: hasPrev, HasNext: hasNext}
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, use "gt" for cursor
	Backward                  // sort descending, use "lt" for cursor
)

// KeysetConfig holds the result of configuring keyset pagination.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 for ascending, -1 for descending
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset determines pagination direction and decodes the cursor.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{
		Direction: Forward,
		SortOrder: 1,
	}

	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
	} else if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}

	return cfg
}

// ApplyToFind configures FindOptions with sort and limit for keyset
// pagination.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the cursor condition for the query filter.
// Returns nil if no cursor is set.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Reverse reverses a slice in place. Use this after fetching results
// when paging backwards to restore the correct display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors creates prev/next cursor strings from the first and last
// elements. keyFn extracts the sort key, idFn the ObjectID.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	prev = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
	next = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	return prev, next
}
