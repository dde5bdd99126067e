package voiceid

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadProfiles reads enrolled speaker profiles from a JSON file. The file
// holds an array of {"identity": ..., "embedding": [...]} objects produced
// by the enrollment tooling.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}

	for i, p := range profiles {
		if p.Identity == "" {
			return nil, fmt.Errorf("profiles %s: entry %d has no identity", path, i)
		}
		if len(p.Embedding) == 0 {
			return nil, fmt.Errorf("profiles %s: %q has an empty embedding", path, p.Identity)
		}
	}
	return profiles, nil
}
