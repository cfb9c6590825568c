package treediff

import (
	"encoding/json"
	"testing"
)

func TestDeterministicOutput(t *testing.T) {
	left := `{"body":[],"bodyPath":"/ipfs/QmXhsUK6vGZrqarhw9Z8RCXqhmEpvtVByKtaYVarbDZ5zn","commit":{"author":{"id":"QmeL2mdVka1eahKENjehK6tBxkkpk5dNQ1qMcgWi7Hrb4B"},"message":"created dataset","path":"/ipfs/QmT8nerkkyqyiUurCPApFF1XW29ouvKKeCCQg3zwt4hrnp","qri":"cm:0","timestamp":"2001-01-01T01:01:01.000000001Z","title":"created dataset"},"meta":{"qri":"md:0","title":"example movie data"},"structure":{"depth":2,"entries":8,"format":"csv","formatConfig":{"headerRow":true,"lazyQuotes":true},"schema":{"items":{"items":[{"title":"movie_title","type":"string"},{"title":"duration","type":"integer"}],"type":"array"},"type":"array"}}}`
	rite := `{"body":[["Avatar ",178],["Spectre ",148],["Tangled ",100]],"bodyPath":"/ipfs/QmXhsUK6vGZrqarhw9Z8RCXqhmEpvtVByKtaYVarbDZ5zn","commit":{"author":{"id":"QmeL2mdVka1eahKENjehK6tBxkkpk5dNQ1qMcgWi7Hrb4B"},"qri":"cm:0","timestamp":"0001-01-01T00:00:00Z","title":""},"meta":{"qri":"md:0","title":"different title"},"name":"test_ds","structure":{"depth":2,"entries":3,"format":"csv","formatConfig":{"headerRow":false,"lazyQuotes":true},"schema":{"items":{"items":[{"title":"duration","type":"integer"},{"title":"movie_title","type":"string"}],"type":"array"},"type":"array"}}}`

	var leftData, riteData interface{}
	if err := json.Unmarshal([]byte(left), &leftData); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(rite), &riteData); err != nil {
		t.Fatal(err)
	}

	for _, opts := range [][]DiffOption{nil, {OptionOrderIndependent()}} {
		var first string
		for k := 0; k < 200; k++ {
			stat := Stats{}
			actual, err := json.Marshal(Diff(leftData, riteData, append(opts, OptionSetStats(&stat))...))
			if err != nil {
				t.Fatal(err)
			}

			if k == 0 {
				first = string(actual)
				continue
			}
			if string(actual) != first {
				t.Fatalf("non-deterministic result on run %d.\nfirst:  %s\nactual: %s", k, first, actual)
			}
		}
	}
}
