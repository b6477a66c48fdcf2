package data

import (
	"context"
	"encoding/json"
	"os"
)

// JSONProvider reads a dataset previously written by WriteJSON.
type JSONProvider struct {
	Path string
}

func (p JSONProvider) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadJSON(p.Path)
}

func LoadJSON(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func WriteJSON(ds *Dataset, path string) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
