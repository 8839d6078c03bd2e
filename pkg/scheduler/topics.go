package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTopics reads the standing topic list from a JSON file: an array of
// {"topic": ..., "source_title": ..., "source_excerpt": ...} objects.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file %s: %w", path, err)
	}

	var topics []Topic

	err = json.Unmarshal(data, &topics)
	if err != nil {
		return nil, fmt.Errorf("failed to parse topics file %s: %w", path, err)
	}

	return topics, nil
}
