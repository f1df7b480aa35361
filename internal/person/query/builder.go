// Package query builds person filters, orderings and aggregation pipelines.
// Every clause has a bson form for MongoDB and an in-memory form so both
// repository backends answer a query identically.
package query

import (
	"regexp"
	"strings"

	"github.com/recordbook/recordbook/internal/person"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clause is a single predicate over a Person.
type Clause interface {
	BSON() bson.M
	Match(p *person.Person) bool
}

// Criteria carries the optional search inputs. Zero values mean "not supplied".
type Criteria struct {
	Name   string
	MinAge *int
	MaxAge *int
	City   string
}

// Clauses turns the supplied criteria into clauses, one per criterion.
// The age range only applies when both bounds are present; a lone bound is
// dropped silently rather than rejected.
func Clauses(c Criteria) []Clause {
	var out []Clause
	if strings.TrimSpace(c.Name) != "" {
		out = append(out, Name(c.Name))
	}
	if c.MinAge != nil && c.MaxAge != nil {
		out = append(out, AgeRange(*c.MinAge, *c.MaxAge))
	}
	if strings.TrimSpace(c.City) != "" {
		out = append(out, City(c.City))
	}
	return out
}

// Filter combines clauses with a single $and. No clauses matches everything.
func Filter(clauses []Clause) bson.M {
	if len(clauses) == 0 {
		return bson.M{}
	}
	and := make(bson.A, 0, len(clauses))
	for _, c := range clauses {
		and = append(and, c.BSON())
	}
	return bson.M{"$and": and}
}

// Match reports whether p satisfies every clause.
func Match(clauses []Clause, p *person.Person) bool {
	for _, c := range clauses {
		if !c.Match(p) {
			return false
		}
	}
	return true
}

// Name matches first names containing s, ignoring case. s is literal text,
// not a pattern.
func Name(s string) Clause { return nameClause{s: s} }

type nameClause struct{ s string }

func (c nameClause) BSON() bson.M {
	return bson.M{"firstName": primitive.Regex{Pattern: regexp.QuoteMeta(c.s), Options: "i"}}
}

func (c nameClause) Match(p *person.Person) bool {
	return strings.Contains(strings.ToLower(p.FirstName), strings.ToLower(c.s))
}

// AgeRange matches min <= age <= max.
func AgeRange(min, max int) Clause { return ageClause{min: min, max: max} }

type ageClause struct{ min, max int }

func (c ageClause) BSON() bson.M {
	return bson.M{"age": bson.M{"$gte": c.min, "$lte": c.max}}
}

func (c ageClause) Match(p *person.Person) bool {
	return p.Age >= c.min && p.Age <= c.max
}

// AgeBetween matches min < age < max. Used by the fixed age listing.
func AgeBetween(min, max int) Clause { return ageExclusiveClause{min: min, max: max} }

type ageExclusiveClause struct{ min, max int }

func (c ageExclusiveClause) BSON() bson.M {
	return bson.M{"age": bson.M{"$gt": c.min, "$lt": c.max}}
}

func (c ageExclusiveClause) Match(p *person.Person) bool {
	return p.Age > c.min && p.Age < c.max
}

// City matches when any address has exactly this city.
func City(city string) Clause { return cityClause{city: city} }

type cityClause struct{ city string }

func (c cityClause) BSON() bson.M {
	return bson.M{"addresses.city": c.city}
}

func (c cityClause) Match(p *person.Person) bool {
	for _, a := range p.Addresses {
		if a.City == c.city {
			return true
		}
	}
	return false
}

// FirstNamePrefix matches first names starting with prefix (case-sensitive).
func FirstNamePrefix(prefix string) Clause { return prefixClause{prefix: prefix} }

type prefixClause struct{ prefix string }

func (c prefixClause) BSON() bson.M {
	return bson.M{"firstName": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(c.prefix)}}
}

func (c prefixClause) Match(p *person.Person) bool {
	return strings.HasPrefix(p.FirstName, c.prefix)
}
