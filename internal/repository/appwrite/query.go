package appwrite

import (
	"encoding/json"
	"net/url"
)

// query is one entry of the queries[] parameter
type query struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

func equal(attribute string, value interface{}) query {
	return query{Method: "equal", Attribute: attribute, Values: []interface{}{value}}
}

func orderDesc(attribute string) query {
	return query{Method: "orderDesc", Attribute: attribute}
}

func limit(n int) query {
	return query{Method: "limit", Values: []interface{}{n}}
}

func queries(qs ...query) url.Values {
	v := url.Values{}
	for _, q := range qs {
		b, _ := json.Marshal(q)
		v.Add("queries[]", string(b))
	}
	return v
}
