package reconcile

import "github.com/dmitrijs2005/canvasser/internal/models"

// ApplyEdit sets field to value on the record of collection that matches
// match by content (full address, house number and street). It returns a new
// slice and the updated record; ok is false when nothing matched, in which
// case the returned slice equals collection.
//
// Invalid values are reported as errors and leave the collection untouched.
func ApplyEdit(collection []models.Address, match models.Address, field models.Field, value string) (out []models.Address, updated models.Address, ok bool, err error) {
	out = make([]models.Address, len(collection))
	copy(out, collection)

	i := IndexOf(collection, match)
	if i < 0 {
		return out, models.Address{}, false, nil
	}

	ann, err := out[i].Annotation.Set(field, value)
	if err != nil {
		return out, models.Address{}, false, err
	}
	out[i].Annotation = ann
	return out, out[i], true, nil
}

// Replace swaps in rec for the row of collection that matches it by content.
// Unmatched records are ignored.
func Replace(collection []models.Address, rec models.Address) []models.Address {
	out := make([]models.Address, len(collection))
	copy(out, collection)
	if i := IndexOf(out, rec); i >= 0 {
		out[i] = rec
	}
	return out
}

// IndexOf returns the position of the first record matching rec by content,
// or -1.
func IndexOf(collection []models.Address, rec models.Address) int {
	for i := range collection {
		if collection[i].SameRow(rec) {
			return i
		}
	}
	return -1
}
