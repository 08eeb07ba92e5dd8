package appwrite

import (
	"github.com/goccy/go-json"
)

// Query is a single query in the backend's JSON query language
type Query string

type queryJSON struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

func newQuery(q queryJSON) Query {
	j, _ := json.Marshal(q)
	return Query(j)
}

// Equal matches documents whose attribute equals one of values
func Equal(attribute string, values ...interface{}) Query {
	return newQuery(queryJSON{Method: "equal", Attribute: attribute, Values: values})
}

// Select restricts the returned attributes
func Select(attributes ...string) Query {
	values := make([]interface{}, len(attributes))
	for i, a := range attributes {
		values[i] = a
	}
	return newQuery(queryJSON{Method: "select", Values: values})
}

// OrderAsc sorts ascending by attribute
func OrderAsc(attribute string) Query {
	return newQuery(queryJSON{Method: "orderAsc", Attribute: attribute})
}

// OrderDesc sorts descending by attribute
func OrderDesc(attribute string) Query {
	return newQuery(queryJSON{Method: "orderDesc", Attribute: attribute})
}

// Limit limits the number of returned documents
func Limit(n int) Query {
	return newQuery(queryJSON{Method: "limit", Values: []interface{}{n}})
}

// ParsedQuery is the decoded form of a Query
type ParsedQuery struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute"`
	Values    []interface{} `json:"values"`
}

// ParseQuery decodes a query. It is the inverse of the builders above.
func ParseQuery(s string) (ParsedQuery, error) {
	var q ParsedQuery
	err := json.Unmarshal([]byte(s), &q)
	return q, err
}
