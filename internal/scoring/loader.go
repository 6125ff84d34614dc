package scoring

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a factor table from a YAML file. Unknown fields fail the
// decode, so typos surface at startup instead of silently scoring with
// defaults.
func Load(path string) (*FactorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factor file: %w", err)
	}

	var table FactorTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("decode factor file: %w", err)
	}

	if err := Validate(&table); err != nil {
		return nil, fmt.Errorf("validate factor file: %w", err)
	}

	return &table, nil
}

// Hash fingerprints a factor table via canonical JSON, so logs can tie any
// score to the exact tunables that produced it.
func Hash(t *FactorTable) (string, error) {
	jsonBytes, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
