package query

import (
	"encoding/json"
	"testing"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"table", Query{Table: "backdoor"}, false},
		{"source", Query{Source: "EDGES -->"}, false},
		{"both", Query{Table: "backdoor", Source: "EDGES -->"}, true},
		{"neither", Query{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryDecode(t *testing.T) {
	src := `{"table": "ancestors", "edges": {"-->": [[1, 2]]}, "sets": {"X": [2]}, "one_indexed": true}`
	var q Query
	if err := json.Unmarshal([]byte(src), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Table != "ancestors" || !q.OneIndexed || q.Verbose {
		t.Errorf("unexpected query %+v", q)
	}
	if got := q.Edges["-->"]; len(got) != 1 || got[0][0] != 1 || got[0][1] != 2 {
		t.Errorf("edges = %v", q.Edges)
	}
}

func TestResultOmitsEmptyTrace(t *testing.T) {
	out, err := json.Marshal(Result{QueryID: "q", Reachable: []int{}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(out), `{"query_id":"q","reachable":[],"states_visited":0,"duration_ms":0}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}
