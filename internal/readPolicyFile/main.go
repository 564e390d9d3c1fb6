// --- Copyright © 2025 Gjorgji J. ---

package readpolicyfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// --- PolicyFile carries retention settings supplied as JSON instead of flags ---
// Keep is a pointer so that an explicit "keep": 0 is distinguishable from an
// absent field. Example:
//
//	{"keep": 5, "grace": "72hr", "pattern": "^main-[a-f0-9]+-(?P<ts>[1-9][0-9]*)$"}
type PolicyFile struct {
	Keep    *int   `json:"keep"`
	Grace   string `json:"grace"`
	Pattern string `json:"pattern"`
}

// --- reads and validates a retention policy file ---
func ReadPolicyFile(filePath string) (PolicyFile, error) {
	var policy PolicyFile

	file, err := os.Open(filePath)
	if err != nil {
		return policy, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return policy, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := json.Unmarshal(bytes, &policy); err != nil {
		return policy, fmt.Errorf("invalid JSON in policy file: %w", err)
	}
	if policy.Keep != nil && *policy.Keep < 0 {
		return policy, fmt.Errorf("policy file keep must be non-negative, got %d", *policy.Keep)
	}

	return policy, nil
}
