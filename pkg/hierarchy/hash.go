package hierarchy

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ComputeHash returns a digest of the forest and descendant lookup. Two runs
// over the same table produce the same digest.
func ComputeHash(forest Forest, dm DescendantMap) string {
	// encoding/json sorts map keys, which keeps the encoding stable
	h := struct {
		Tree        Forest              `json:"tree"`
		Descendants map[string][]string `json:"descendants"`
	}{
		Tree:        forest,
		Descendants: dm.Lookup(),
	}

	data, err := json.Marshal(h)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}
