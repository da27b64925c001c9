// Package pagination splits a result set into pages. A Pager asks its Adapter
// for the total count and for one slice at a time, so only the current page
// is ever loaded.
package pagination
