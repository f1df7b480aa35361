package query

import (
	"testing"

	"github.com/recordbook/recordbook/internal/person"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func stageNames(p []bson.D) []string {
	out := make([]string, 0, len(p))
	for _, s := range p {
		out = append(out, s[0].Key)
	}
	return out
}

func TestOldestPersonByCityPipeline_Stages(t *testing.T) {
	p := OldestPersonByCityPipeline()
	require.Equal(t, []string{"$project", "$unwind", "$sort", "$group", "$project", "$sort"}, stageNames(p))
	require.Equal(t, bson.D{{Key: "doc.age", Value: -1}, {Key: "doc._id", Value: 1}}, p[2][0].Value)
}

func TestPopulationByCityPipeline_Stages(t *testing.T) {
	p := PopulationByCityPipeline()
	require.Equal(t, []string{"$unwind", "$group", "$sort", "$project"}, stageNames(p))
	require.Equal(t, bson.D{
		{Key: "_id", Value: 0},
		{Key: "city", Value: "$_id"},
		{Key: "count", Value: 1},
	}, p[3][0].Value)
}

func TestPopulationByCity_Example(t *testing.T) {
	ps := []*person.Person{
		{ID: "1", FirstName: "Amy", Age: 30, Addresses: []person.Address{{City: "Austin"}}},
		{ID: "2", FirstName: "Bo", Age: 45, Addresses: []person.Address{{City: "Austin"}}},
		{ID: "3", FirstName: "Cy", Age: 50, Addresses: []person.Address{{City: "Dallas"}}},
	}
	require.Equal(t, []person.CityPopulation{
		{City: "Austin", Count: 2},
		{City: "Dallas", Count: 1},
	}, PopulationByCity(ps))

	oldest := OldestByCity(ps)
	require.Len(t, oldest, 2)
	require.Equal(t, "Austin", oldest[0].City)
	require.Equal(t, "Bo", oldest[0].OldestPerson.FirstName)
	require.Equal(t, "Dallas", oldest[1].City)
	require.Equal(t, "Cy", oldest[1].OldestPerson.FirstName)
}

func TestPopulationByCity_CountsPairsAndOrders(t *testing.T) {
	ps := []*person.Person{
		// two addresses in the same city count twice
		{ID: "1", Age: 30, Addresses: []person.Address{{City: "Austin"}, {City: "Austin"}}},
		{ID: "2", Age: 40, Addresses: []person.Address{{City: "Boston"}, {City: "Chicago"}}},
		{ID: "3", Age: 50, Addresses: []person.Address{{City: "Chicago"}}},
		{ID: "4", Age: 60},
	}
	got := PopulationByCity(ps)
	require.Equal(t, []person.CityPopulation{
		{City: "Austin", Count: 2},
		{City: "Chicago", Count: 2},
		{City: "Boston", Count: 1},
	}, got)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}
}

func TestOldestByCity_MaxAgeAndTieBreak(t *testing.T) {
	ps := []*person.Person{
		{ID: "b", FirstName: "B", Age: 70, Addresses: []person.Address{{City: "Austin"}}},
		{ID: "a", FirstName: "A", Age: 70, Addresses: []person.Address{{City: "Austin"}, {City: "Reno"}}},
		{ID: "c", FirstName: "C", Age: 20, Addresses: []person.Address{{City: "Reno"}}},
		{ID: "d", FirstName: "D", Age: 99},
	}
	got := OldestByCity(ps)
	require.Len(t, got, 2)

	maxAge := map[string]int{}
	for _, p := range ps {
		for _, a := range p.Addresses {
			if p.Age > maxAge[a.City] {
				maxAge[a.City] = p.Age
			}
		}
	}
	for _, row := range got {
		require.Equal(t, maxAge[row.City], row.OldestPerson.Age)
	}
	// equal ages resolve to the lowest id
	require.Equal(t, "a", got[0].OldestPerson.ID)
	// the full document is returned, not the unwound row
	require.Len(t, got[0].OldestPerson.Addresses, 2)
}

func TestAggregations_Empty(t *testing.T) {
	require.Empty(t, OldestByCity(nil))
	require.Empty(t, PopulationByCity(nil))
}
