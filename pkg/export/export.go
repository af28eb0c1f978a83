// Package export renders tabular datasets, used for attendance recaps.
package export

// Dataset is an ordered table: headers plus rows keyed by header name.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
