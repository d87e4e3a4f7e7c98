package reconcile

import (
	"reflect"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

var (
	reflectAddress    = reflect.TypeOf(models.Address{})
	reflectAnnotation = reflect.TypeOf(models.Annotation{})
)

func addr(n, street string, ann models.Annotation) models.Address {
	return models.Address{
		HouseNumber: n,
		Street:      street,
		City:        "Madrid",
		FullAddress: n + " " + street,
		Annotation:  ann,
	}
}
