package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/normalize"
)

type Envelope struct {
	Addresses   []models.AnnotationPatch `json:"addresses"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Version     string                   `json:"version"`
}

// Empty returns an envelope with no addresses and the current version tag.
func Empty() Envelope {
	return Envelope{Addresses: []models.AnnotationPatch{}, Version: common.CacheEnvelopeVersion}
}

// Merge returns a copy of e where every patch replaces the stored patch with
// the same address key, or is appended when the key is new.
func (e Envelope) Merge(patches []models.AnnotationPatch, now time.Time) Envelope {
	out := Envelope{
		Addresses:   make([]models.AnnotationPatch, 0, len(e.Addresses)+len(patches)),
		LastUpdated: now.UTC(),
		Version:     common.CacheEnvelopeVersion,
	}
	out.Addresses = append(out.Addresses, e.Addresses...)

	pos := make(map[string]int, len(out.Addresses))
	for i, p := range out.Addresses {
		pos[p.Key()] = i
	}
	for _, p := range patches {
		if i, ok := pos[p.Key()]; ok {
			out.Addresses[i] = p
			continue
		}
		pos[p.Key()] = len(out.Addresses)
		out.Addresses = append(out.Addresses, p)
	}
	return out
}

// ForCity returns the stored patches whose city matches city.
func (e Envelope) ForCity(city string) []models.AnnotationPatch {
	out := make([]models.AnnotationPatch, 0)
	for _, p := range e.Addresses {
		if normalize.CitiesMatch(p.City, city) {
			out = append(out, p)
		}
	}
	return out
}

// Decode parses a stored payload. An empty payload yields Empty().
func Decode(payload []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Empty(), nil
	}

	if trimmed[0] == '[' {
		var legacy []models.AnnotationPatch
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return Empty(), fmt.Errorf("%w: %w", common.ErrMalformedCache, err)
		}
		env := Empty()
		env.Addresses = append(env.Addresses, legacy...)
		return env, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Empty(), fmt.Errorf("%w: %w", common.ErrMalformedCache, err)
	}
	if env.Addresses == nil {
		env.Addresses = []models.AnnotationPatch{}
	}
	if env.Version == "" {
		env.Version = common.CacheEnvelopeVersion
	}
	return env, nil
}

func Encode(e Envelope) ([]byte, error) {
	if e.Addresses == nil {
		e.Addresses = []models.AnnotationPatch{}
	}
	e.Version = common.CacheEnvelopeVersion
	return json.Marshal(e)
}
