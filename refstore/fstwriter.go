package refstore

import (
	"io"

	"github.com/blevesearch/vellum"
)

// NewFSTBuilder wraps vellum.New with the engine's default builder options.
// vellum.Builder.Insert requires strictly ascending keys; a caller that
// violates that ordering should translate the returned error into a
// kinerr.FstBuildNonMonotonic (spec §4.3).
func NewFSTBuilder(w io.Writer) (*vellum.Builder, error) {
	return vellum.New(w, nil)
}
