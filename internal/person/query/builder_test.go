package query

import (
	"testing"

	"github.com/recordbook/recordbook/internal/person"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intp(v int) *int { return &v }

func people() []*person.Person {
	return []*person.Person{
		{ID: "1", FirstName: "Amy", Age: 30, Addresses: []person.Address{{City: "Austin"}}},
		{ID: "2", FirstName: "Bo", Age: 45, Addresses: []person.Address{{City: "Austin"}}},
		{ID: "3", FirstName: "Cy", Age: 50, Addresses: []person.Address{{City: "Dallas"}}},
		{ID: "4", FirstName: "amanda", Age: 29, Addresses: []person.Address{{City: "Houston"}, {City: "Dallas"}}},
		{ID: "5", FirstName: "Dee", Age: 51},
	}
}

func matching(clauses []Clause, ps []*person.Person) []string {
	var ids []string
	for _, p := range ps {
		if Match(clauses, p) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestFilter_NoCriteriaMatchesAll(t *testing.T) {
	clauses := Clauses(Criteria{Name: "   ", City: ""})
	require.Empty(t, clauses)
	require.Equal(t, bson.M{}, Filter(clauses))
	require.Len(t, matching(clauses, people()), 5)
}

func TestFilter_ConjunctionShape(t *testing.T) {
	clauses := Clauses(Criteria{Name: "a.m", MinAge: intp(20), MaxAge: intp(40), City: "Austin"})
	require.Len(t, clauses, 3)

	f := Filter(clauses)
	and, ok := f["$and"].(bson.A)
	require.True(t, ok, "expected $and array, got %#v", f)
	require.Len(t, and, 3)
	require.Equal(t, bson.M{"firstName": primitive.Regex{Pattern: `a\.m`, Options: "i"}}, and[0])
	require.Equal(t, bson.M{"age": bson.M{"$gte": 20, "$lte": 40}}, and[1])
	require.Equal(t, bson.M{"addresses.city": "Austin"}, and[2])
}

func TestClauses_LoneAgeBoundIgnored(t *testing.T) {
	require.Empty(t, Clauses(Criteria{MinAge: intp(10)}))
	require.Empty(t, Clauses(Criteria{MaxAge: intp(10)}))
}

func TestMatch_NameIsCaseInsensitiveSubstring(t *testing.T) {
	require.Equal(t, []string{"1", "4"}, matching(Clauses(Criteria{Name: "AM"}), people()))
	require.Equal(t, []string{"2"}, matching(Clauses(Criteria{Name: "o"}), people()))
}

func TestMatch_AgeInclusiveBounds(t *testing.T) {
	ps := []*person.Person{
		{ID: "a", Age: 19}, {ID: "b", Age: 20}, {ID: "c", Age: 30}, {ID: "d", Age: 31},
	}
	require.Equal(t, []string{"b", "c"}, matching(Clauses(Criteria{MinAge: intp(20), MaxAge: intp(30)}), ps))
}

func TestMatch_CityAnyAddress(t *testing.T) {
	require.Equal(t, []string{"3", "4"}, matching(Clauses(Criteria{City: "Dallas"}), people()))
	require.Empty(t, matching(Clauses(Criteria{City: "dallas"}), people()))
}

func TestMatch_IntersectionOfCriteria(t *testing.T) {
	ps := people()
	full := Criteria{Name: "a", MinAge: intp(25), MaxAge: intp(50), City: "Dallas"}
	got := matching(Clauses(full), ps)

	var want []string
	for _, p := range ps {
		if Name(full.Name).Match(p) && AgeRange(25, 50).Match(p) && City("Dallas").Match(p) {
			want = append(want, p.ID)
		}
	}
	require.Equal(t, want, got)
	require.Equal(t, []string{"4"}, got)
}

func TestAgeBetween_Exclusive(t *testing.T) {
	ps := []*person.Person{{ID: "a", Age: 20}, {ID: "b", Age: 21}, {ID: "c", Age: 29}, {ID: "d", Age: 30}}
	c := AgeBetween(20, 30)
	require.Equal(t, []string{"b", "c"}, matching([]Clause{c}, ps))
	require.Equal(t, bson.M{"age": bson.M{"$gt": 20, "$lt": 30}}, c.BSON())
}

func TestFirstNamePrefix(t *testing.T) {
	c := FirstNamePrefix("Am")
	require.Equal(t, []string{"1"}, matching([]Clause{c}, people()))
	require.Equal(t, bson.M{"firstName": primitive.Regex{Pattern: "^Am"}}, c.BSON())
}
