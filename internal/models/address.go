// Package models defines the address record shared by the generator, the
// reconciliation engine, the local cache and the remote store.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/normalize"
)

// Visited records whether the address was walked.
type Visited string

const (
	VisitedYes Visited = "Yes"
	VisitedNo  Visited = "No"
)

// Status is the outcome of the last contact attempt.
type Status string

const (
	StatusNotContacted  Status = "NotContacted"
	StatusContacted     Status = "Contacted"
	StatusInterested    Status = "Interested"
	StatusNotInterested Status = "NotInterested"
	StatusSale          Status = "Sale"
	StatusAbsent        Status = "Absent"
)

// InterestLevel is optional; the empty value means "not set".
type InterestLevel string

const (
	InterestHigh   InterestLevel = "High"
	InterestMedium InterestLevel = "Medium"
	InterestLow    InterestLevel = "Low"
	InterestNone   InterestLevel = "None"
)

// Field names an annotation field that can be edited.
type Field string

const (
	FieldVisited       Field = "visited"
	FieldVisitDate     Field = "visit_date"
	FieldStatus        Field = "status"
	FieldInterestLevel Field = "interest_level"
	FieldContactInfo   Field = "contact_info"
	FieldNotes         Field = "notes"
	FieldFollowUpDate  Field = "follow_up_date"
)

// Fields lists the editable fields in display order.
var Fields = []Field{
	FieldVisited, FieldVisitDate, FieldStatus, FieldInterestLevel,
	FieldContactInfo, FieldNotes, FieldFollowUpDate,
}

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

// Spanish labels are accepted on input alongside the canonical values.
var (
	visitedAliases = map[string]Visited{
		"yes": VisitedYes, "si": VisitedYes, "sí": VisitedYes,
		"no": VisitedNo,
	}
	statusAliases = map[string]Status{
		"notcontacted": StatusNotContacted, "sin contactar": StatusNotContacted,
		"contacted": StatusContacted, "contactado": StatusContacted,
		"interested": StatusInterested, "interesado": StatusInterested,
		"notinterested": StatusNotInterested, "no interesado": StatusNotInterested,
		"sale": StatusSale, "venta": StatusSale,
		"absent": StatusAbsent, "ausente": StatusAbsent,
	}
	interestAliases = map[string]InterestLevel{
		"high": InterestHigh, "alto": InterestHigh,
		"medium": InterestMedium, "medio": InterestMedium,
		"low": InterestLow, "bajo": InterestLow,
		"none": InterestNone, "ninguno": InterestNone,
		"": "",
	}
)

func ParseVisited(s string) (Visited, error) {
	if v, ok := visitedAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: visited %q", ErrInvalidValue, s)
}

func ParseStatus(s string) (Status, error) {
	if v, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: status %q", ErrInvalidValue, s)
}

func ParseInterestLevel(s string) (InterestLevel, error) {
	if v, ok := interestAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: interest level %q", ErrInvalidValue, s)
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: date %q, want YYYY-MM-DD", ErrInvalidValue, s)
	}
	return s, nil
}

// Annotation holds the user-mutable fields of an address. Dates are kept as
// YYYY-MM-DD strings; the empty string means unset.
type Annotation struct {
	Visited       Visited       `json:"visited"`
	VisitDate     string        `json:"visit_date,omitempty"`
	Status        Status        `json:"status"`
	InterestLevel InterestLevel `json:"interest_level,omitempty"`
	ContactInfo   string        `json:"contact_info,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	FollowUpDate  string        `json:"follow_up_date,omitempty"`
}

// DefaultAnnotation is the state of every freshly generated address.
func DefaultAnnotation() Annotation {
	return Annotation{Visited: VisitedNo, Status: StatusNotContacted}
}

// IsModified reports whether any field differs from DefaultAnnotation. Empty
// enum values count as defaults.
func (a Annotation) IsModified() bool {
	return (a.Visited != "" && a.Visited != VisitedNo) ||
		a.VisitDate != "" ||
		(a.Status != "" && a.Status != StatusNotContacted) ||
		a.InterestLevel != "" ||
		a.ContactInfo != "" ||
		a.Notes != "" ||
		a.FollowUpDate != ""
}

// Set returns a copy of a with field replaced by the parsed value.
func (a Annotation) Set(field Field, value string) (Annotation, error) {
	var err error
	switch field {
	case FieldVisited:
		a.Visited, err = ParseVisited(value)
	case FieldVisitDate:
		a.VisitDate, err = parseDate(value)
	case FieldStatus:
		a.Status, err = ParseStatus(value)
	case FieldInterestLevel:
		a.InterestLevel, err = ParseInterestLevel(value)
	case FieldContactInfo:
		a.ContactInfo = value
	case FieldNotes:
		a.Notes = value
	case FieldFollowUpDate:
		a.FollowUpDate, err = parseDate(value)
	default:
		return a, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return a, err
}

// ValidateField checks that value is acceptable for field without applying it.
func ValidateField(field Field, value string) error {
	_, err := DefaultAnnotation().Set(field, value)
	return err
}

// Address is one candidate door. Identity is (HouseNumber, Street, City);
// RemoteID is set once the remote store has persisted the annotation.
type Address struct {
	RemoteID    string   `json:"id,omitempty"`
	HouseNumber string   `json:"house_number"`
	Street      string   `json:"street"`
	City        string   `json:"city"`
	Province    string   `json:"province,omitempty"`
	Postcode    string   `json:"postcode,omitempty"`
	FullAddress string   `json:"full_address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`

	Annotation
}

// Key is the normalized matching key of the address.
func (a Address) Key() string {
	return normalize.AddressKey(a.HouseNumber, a.Street, a.City)
}

// SameRow reports whether b is the display-layer counterpart of a.
func (a Address) SameRow(b Address) bool {
	return a.FullAddress == b.FullAddress && a.HouseNumber == b.HouseNumber && a.Street == b.Street
}

// Patch extracts what the remote store and the offline queue need.
func (a Address) Patch() AnnotationPatch {
	return AnnotationPatch{
		RemoteID:    a.RemoteID,
		HouseNumber: a.HouseNumber,
		Street:      a.Street,
		City:        a.City,
		Province:    a.Province,
		FullAddress: a.FullAddress,
		Annotation:  a.Annotation,
	}
}

// AnnotationPatch is the persisted unit: the identity triple, display fields
// needed to recreate the row remotely, and the annotation itself.
type AnnotationPatch struct {
	RemoteID    string `json:"id,omitempty"`
	HouseNumber string `json:"house_number"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Province    string `json:"province,omitempty"`
	FullAddress string `json:"full_address"`

	Annotation
}

func (p AnnotationPatch) Key() string {
	return normalize.AddressKey(p.HouseNumber, p.Street, p.City)
}

// Address turns a stored patch back into an address record.
func (p AnnotationPatch) Address() Address {
	return Address{
		RemoteID:    p.RemoteID,
		HouseNumber: p.HouseNumber,
		Street:      p.Street,
		City:        p.City,
		Province:    p.Province,
		FullAddress: p.FullAddress,
		Annotation:  p.Annotation,
	}
}

// ModifiedPatches returns patches for the modified addresses only.
func ModifiedPatches(addresses []Address) []AnnotationPatch {
	out := make([]AnnotationPatch, 0)
	for _, a := range addresses {
		if a.IsModified() {
			out = append(out, a.Patch())
		}
	}
	return out
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
