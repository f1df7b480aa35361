package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/recordbook/recordbook/internal/person"
)

// In-memory counterparts of the aggregation pipelines, one function per stage.

type cityRow struct {
	city   string
	person *person.Person
}

// expand emits one row per (person, address) pair. People without addresses
// produce no rows.
func expand(people []*person.Person) []cityRow {
	var rows []cityRow
	for _, p := range people {
		for _, a := range p.Addresses {
			rows = append(rows, cityRow{city: a.City, person: p})
		}
	}
	return rows
}

func sortOldestFirst(rows []cityRow) {
	slices.SortStableFunc(rows, func(a, b cityRow) int {
		if c := cmp.Compare(b.person.Age, a.person.Age); c != 0 {
			return c
		}
		return strings.Compare(a.person.ID, b.person.ID)
	})
}

// groupFirst keeps the first row seen for each city.
func groupFirst(rows []cityRow) []cityRow {
	seen := make(map[string]bool)
	var out []cityRow
	for _, r := range rows {
		if seen[r.city] {
			continue
		}
		seen[r.city] = true
		out = append(out, r)
	}
	return out
}

// OldestByCity mirrors OldestPersonByCityPipeline.
func OldestByCity(people []*person.Person) []person.CityOldest {
	rows := expand(people)
	sortOldestFirst(rows)
	firsts := groupFirst(rows)

	out := make([]person.CityOldest, 0, len(firsts))
	for _, r := range firsts {
		out = append(out, person.CityOldest{City: r.city, OldestPerson: *r.person.Clone()})
	}
	slices.SortFunc(out, func(a, b person.CityOldest) int { return strings.Compare(a.City, b.City) })
	return out
}

// PopulationByCity mirrors PopulationByCityPipeline.
func PopulationByCity(people []*person.Person) []person.CityPopulation {
	counts := make(map[string]int64)
	for _, r := range expand(people) {
		counts[r.city]++
	}

	out := make([]person.CityPopulation, 0, len(counts))
	for city, n := range counts {
		out = append(out, person.CityPopulation{City: city, Count: n})
	}
	slices.SortFunc(out, func(a, b person.CityPopulation) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.City, b.City)
	})
	return out
}
