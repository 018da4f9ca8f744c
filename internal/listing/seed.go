package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelfolio/pkg/types"
)

type seedFile struct {
	Listings []types.Listing `json:"listings" yaml:"listings" toml:"listings"`
}

// LoadSeed reads listings from a .yaml/.yml, .json, or .toml file.
// Listings without an id get a random UUID.
func LoadSeed(path string) ([]types.Listing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	case ".toml":
		err = toml.Unmarshal(b, &f)
	default:
		return nil, fmt.Errorf("unsupported seed extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range f.Listings {
		if strings.TrimSpace(f.Listings[i].ID) == "" {
			f.Listings[i].ID = uuid.NewString()
		}
	}
	return f.Listings, nil
}

// Seed upserts listings into s and returns how many were written.
func Seed(ctx context.Context, s *SQLiteStore, listings []types.Listing) (int, error) {
	for i, l := range listings {
		if err := s.Upsert(ctx, l); err != nil {
			return i, fmt.Errorf("seed %q: %w", l.ID, err)
		}
	}
	return len(listings), nil
}
