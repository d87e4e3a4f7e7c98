package reconcile

import "github.com/dmitrijs2005/canvasser/internal/models"

// MergeWithStored returns generated with the annotation and remote id of
// every stored record whose key matches copied over. Display and geometry
// fields always come from the generated record. Stored records without a
// generated counterpart are dropped, so the result has len(generated).
//
// When several stored records share a key the last one wins.
func MergeWithStored(generated, stored []models.Address) []models.Address {
	out := make([]models.Address, len(generated))
	copy(out, generated)
	if len(stored) == 0 {
		return out
	}

	byKey := make(map[string]models.Address, len(stored))
	for _, s := range stored {
		byKey[s.Key()] = s
	}

	for i := range out {
		s, ok := byKey[out[i].Key()]
		if !ok {
			continue
		}
		out[i].Annotation = s.Annotation
		if s.RemoteID != "" {
			out[i].RemoteID = s.RemoteID
		}
	}
	return out
}

// MergePatches is MergeWithStored for records read from the local cache.
func MergePatches(generated []models.Address, stored []models.AnnotationPatch) []models.Address {
	addrs := make([]models.Address, 0, len(stored))
	for _, p := range stored {
		addrs = append(addrs, p.Address())
	}
	return MergeWithStored(generated, addrs)
}
