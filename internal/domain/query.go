package domain

import "encoding/json"

const (
	// NoResultsMessage is the informational marker for an empty result set.
	NoResultsMessage = "Query executed successfully, but no results were found."

	// InvalidQueryMessage is reported for statements that are not SELECTs.
	InvalidQueryMessage = "Invalid query. Only SELECT statements are permitted."
)

// QueryResult is the outcome of one constrained query. It is always data:
// a failed query sets Error and Query, a successful one sets Columns and Rows.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
	Error   string
	Query   string
}

// Failed reports whether the query produced an error payload.
func (r *QueryResult) Failed() bool {
	return r.Error != ""
}

// JSON renders the result in the shape relayed to the agent as a tool output.
func (r *QueryResult) JSON() string {
	var v any
	switch {
	case r.Failed():
		v = []map[string]string{{"error": r.Error, "query_attempted": r.Query}}
	case len(r.Rows) == 0:
		v = []map[string]string{{"message": NoResultsMessage}}
	default:
		v = r.Rows
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal([]map[string]string{{"error": "failed to encode query result: " + err.Error(), "query_attempted": r.Query}})
	}
	return string(data)
}
