package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// OldestPersonByCityPipeline yields one {city, oldestPerson} row per city.
//
// Each person is paired with every one of its addresses, rows are ordered
// oldest first and the first row of each city group wins. Equal ages resolve
// to the lowest _id. Output is ordered by city.
func OldestPersonByCityPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		// keep the untouched document next to the address being unwound
		{{Key: "$project", Value: bson.D{
			{Key: "doc", Value: "$$ROOT"},
			{Key: "addresses", Value: 1},
		}}},
		{{Key: "$unwind", Value: "$addresses"}},
		{{Key: "$sort", Value: bson.D{
			{Key: "doc.age", Value: -1},
			{Key: "doc._id", Value: 1},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$addresses.city"},
			{Key: "oldestPerson", Value: bson.D{{Key: "$first", Value: "$doc"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "city", Value: "$_id"},
			{Key: "oldestPerson", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "city", Value: 1}}}},
	}
}

// PopulationByCityPipeline yields {city, count} rows, most populous first.
// count is the number of (person, address) pairs naming the city; equal
// counts are ordered by city.
func PopulationByCityPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$addresses"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$addresses.city"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "city", Value: "$_id"},
			{Key: "count", Value: 1},
		}}},
	}
}
