package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DatasetHash fingerprints the observations a selection ran on
type DatasetHash Hash

func (h DatasetHash) String() string { return Hash(h).String() }

// ComputeDatasetHash hashes the numeric ordinates and values in order.
// Two series that differ only in formatting of their source text hash equal.
func ComputeDatasetHash(x, y []float64) DatasetHash {
	var data strings.Builder
	for i := range x {
		fmt.Fprintf(&data, "%016x:%016x;", math.Float64bits(x[i]), math.Float64bits(y[i]))
	}
	return DatasetHash(NewHash([]byte(data.String())))
}

// ComputeParamsHash hashes a parameter map with sorted keys
func ComputeParamsHash(params map[string]interface{}) Hash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fmt.Sprintf("%v", params[key]))
		data.WriteString(";")
	}
	return NewHash([]byte(data.String()))
}

// ComputeRecordsHash hashes tabular records: headers, then each row's source
// index and cells in header order. Fields are length-prefixed so no cell
// content can collide with a separator.
func ComputeRecordsHash(headers []string, indices []int, cells func(i int) []string) Hash {
	var data strings.Builder
	field := func(s string) {
		fmt.Fprintf(&data, "%d:%s", len(s), s)
	}
	for _, h := range headers {
		field(h)
	}
	data.WriteString("|")
	for i, idx := range indices {
		fmt.Fprintf(&data, "#%d", idx)
		for _, c := range cells(i) {
			field(c)
		}
	}
	return NewHash([]byte(data.String()))
}
