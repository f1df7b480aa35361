package query

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/recordbook/recordbook/internal/person"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrUnknownSortField = errors.New("unknown sort field")

type sortField struct {
	bsonKey string
	compare func(a, b *person.Person) int
}

var sortFields = map[string]sortField{
	"personid":  {bsonKey: "_id", compare: func(a, b *person.Person) int { return strings.Compare(a.ID, b.ID) }},
	"id":        {bsonKey: "_id", compare: func(a, b *person.Person) int { return strings.Compare(a.ID, b.ID) }},
	"firstname": {bsonKey: "firstName", compare: func(a, b *person.Person) int { return strings.Compare(a.FirstName, b.FirstName) }},
	"lastname":  {bsonKey: "lastName", compare: func(a, b *person.Person) int { return strings.Compare(a.LastName, b.LastName) }},
	"age":       {bsonKey: "age", compare: func(a, b *person.Person) int { return cmp.Compare(a.Age, b.Age) }},
}

type sortKey struct {
	sortField
	desc bool
}

func resolve(orders []person.SortOrder) ([]sortKey, error) {
	keys := make([]sortKey, 0, len(orders)+1)
	hasID := false
	for _, o := range orders {
		f, ok := sortFields[strings.ToLower(o.Field)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortField, o.Field)
		}
		if f.bsonKey == "_id" {
			hasID = true
		}
		keys = append(keys, sortKey{sortField: f, desc: o.Desc})
	}
	// _id last so equal keys still page deterministically
	if !hasID {
		keys = append(keys, sortKey{sortField: sortFields["id"]})
	}
	return keys, nil
}

// SortSpec returns the Mongo sort document for orders.
func SortSpec(orders []person.SortOrder) (bson.D, error) {
	keys, err := resolve(orders)
	if err != nil {
		return nil, err
	}
	spec := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: k.bsonKey, Value: dir})
	}
	return spec, nil
}

// Compare returns an ordering function equivalent to SortSpec.
func Compare(orders []person.SortOrder) (func(a, b *person.Person) int, error) {
	keys, err := resolve(orders)
	if err != nil {
		return nil, err
	}
	return func(a, b *person.Person) int {
		for _, k := range keys {
			c := k.compare(a, b)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}, nil
}

// ParseSort reads "field" or "field,asc|desc" values as sent by clients.
func ParseSort(values []string) []person.SortOrder {
	var out []person.SortOrder
	for _, v := range values {
		parts := strings.Split(v, ",")
		field := strings.TrimSpace(parts[0])
		if field == "" {
			continue
		}
		o := person.SortOrder{Field: field}
		if len(parts) > 1 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc") {
			o.Desc = true
		}
		out = append(out, o)
	}
	return out
}
