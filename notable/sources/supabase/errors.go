package supabase

import "errors"

var (
	errEmptyInsert  = errors.New("insert returned no rows")
	errMultipleRows = errors.New("query matched more than one row")
)
