package directory

// Record is one decoded directory entry, keyed by domain field name.
// Attributes absent from the directory are absent from the record, which
// keeps "no value" distinguishable from "empty value".
type Record map[string]any

// Result is the outcome of one logical query.
//
// Total counts matching entries across all pages; when PageSize is zero the
// query was not paginated and Total equals len(Items). Items are in the
// order the directory returned them, which is not guaranteed to be sorted.
type Result struct {
	Items      []Record
	Total      int
	PageSize   int
	PageNumber int
}
