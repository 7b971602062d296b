// Package batch drives sequential per-item work over a list, in pages.
//
// Items are handled strictly one at a time and in order. A failing item is
// recorded in the Report and processing moves on; only a nil callback or a
// canceled context stops the run. Progress is reported after every page of
// BatchSize items.
package batch
