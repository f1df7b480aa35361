package person

import (
	"errors"
	"math"
)

var (
	ErrNotFound = errors.New("person not found")
)

// Person is the persisted document in the "persons" collection. Addresses are
// embedded and have no identity of their own.
type Person struct {
	ID        string    `json:"personId" bson:"_id,omitempty"`
	FirstName string    `json:"firstName" bson:"firstName"`
	LastName  string    `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Age       int       `json:"age" bson:"age"`
	Hobbies   []string  `json:"hobbies,omitempty" bson:"hobbies,omitempty"`
	Addresses []Address `json:"addresses,omitempty" bson:"addresses,omitempty"`
}

// Address is embedded in Person.
type Address struct {
	Address1 string `json:"address1,omitempty" bson:"address1,omitempty"`
	Address2 string `json:"address2,omitempty" bson:"address2,omitempty"`
	City     string `json:"city" bson:"city"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	if p.Hobbies != nil {
		c.Hobbies = append([]string(nil), p.Hobbies...)
	}
	if p.Addresses != nil {
		c.Addresses = append([]Address(nil), p.Addresses...)
	}
	return &c
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// SortOrder orders results by a single field. Field uses the JSON/bson
// field names: "personId", "firstName", "lastName" or "age".
type SortOrder struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Pageable describes a zero-based page window and its ordering.
type Pageable struct {
	Page int         `json:"page"`
	Size int         `json:"size"`
	Sort []SortOrder `json:"sort,omitempty"`
}

// Normalize clamps the window to sane bounds.
func (p Pageable) Normalize() Pageable {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of matching documents skipped before this page. It
// saturates at math.MaxInt64 instead of wrapping for huge page indexes.
func (p Pageable) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if int64(p.Page) > math.MaxInt64/int64(p.Size) {
		return math.MaxInt64
	}
	return int64(p.Page) * int64(p.Size)
}

// Page is one window of a filtered result set plus the total match count.
type Page struct {
	Items []*Person `json:"content"`
	Total int64     `json:"totalElements"`
	Page  int       `json:"number"`
	Size  int       `json:"size"`
}

// TotalPages is ceil(Total/Size).
func (p *Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// CityOldest is one row of the oldest-person-per-city report.
type CityOldest struct {
	City         string `json:"city" bson:"city"`
	OldestPerson Person `json:"oldestPerson" bson:"oldestPerson"`
}

// CityPopulation is one row of the population-per-city report.
type CityPopulation struct {
	City  string `json:"city" bson:"city"`
	Count int64  `json:"count" bson:"count"`
}
