package philox

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TestVector is one Philox4x32-10 known-answer case. Words are written as
// space-separated 32-bit hex values, word 0 first, as in the Random123
// kat_vectors file.
type TestVector struct {
	Name     string `json:"name"`
	Rounds   int    `json:"rounds"`
	Counter  string `json:"counter"`
	Key      string `json:"key"`
	Expected string `json:"expected"`
}

// TestVectorSuite contains all test vectors with metadata about their source.
type TestVectorSuite struct {
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Source      string       `json:"source,omitempty"`
	Vectors     []TestVector `json:"vectors"`
}

// LoadTestVectors loads test vectors from a JSON file.
// Returns an error if the file cannot be read or parsed.
//
// This is used internally for testing but exported for potential external validation tools.
func LoadTestVectors(path string) (*TestVectorSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test vectors: %w", err)
	}

	var suite TestVectorSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse test vectors: %w", err)
	}

	return &suite, nil
}

// GetCounter returns the decoded input counter.
func (tv *TestVector) GetCounter() (Block, error) {
	var b Block
	if err := parseWords(tv.Counter, b[:]); err != nil {
		return b, fmt.Errorf("invalid counter: %w", err)
	}
	return b, nil
}

// GetKey returns the decoded key.
func (tv *TestVector) GetKey() (Key, error) {
	var k Key
	if err := parseWords(tv.Key, k[:]); err != nil {
		return k, fmt.Errorf("invalid key: %w", err)
	}
	return k, nil
}

// GetExpected returns the decoded expected output block.
func (tv *TestVector) GetExpected() (Block, error) {
	var b Block
	if err := parseWords(tv.Expected, b[:]); err != nil {
		return b, fmt.Errorf("invalid expected block: %w", err)
	}
	return b, nil
}

// Check runs the permutation on the vector's input and compares it with
// the expected output.
func (tv *TestVector) Check() (got Block, ok bool, err error) {
	if tv.Rounds != 0 && tv.Rounds != 10 {
		return got, false, fmt.Errorf("unsupported round count %d", tv.Rounds)
	}
	ctr, err := tv.GetCounter()
	if err != nil {
		return got, false, err
	}
	key, err := tv.GetKey()
	if err != nil {
		return got, false, err
	}
	want, err := tv.GetExpected()
	if err != nil {
		return got, false, err
	}
	got = Permute(ctr, key)
	return got, got == want, nil
}

func parseWords(s string, dst []uint32) error {
	fields := strings.Fields(s)
	if len(fields) != len(dst) {
		return fmt.Errorf("want %d words, got %d", len(dst), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 32)
		if err != nil {
			return err
		}
		dst[i] = uint32(v)
	}
	return nil
}
