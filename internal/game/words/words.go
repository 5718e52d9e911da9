// Package words holds the static word list candidates are drawn from. The
// list is embedded at build time and loaded once at process start.
package words

import (
	_ "embed"
	"encoding/json"
	"math/rand"
)

//go:embed words.json
var raw []byte

var list []string

func init() {
	if err := json.Unmarshal(raw, &list); err != nil {
		panic("words: embedded word list is malformed: " + err.Error())
	}
	if len(list) < 3 {
		panic("words: embedded word list needs at least 3 entries")
	}
}

// Count reports the size of the word list.
func Count() int {
	return len(list)
}

// Sample draws n distinct words uniformly at random without replacement.
func Sample(r *rand.Rand, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	picked := make([]string, 0, n)
	used := make(map[int]struct{}, n)
	for len(picked) < n {
		idx := r.Intn(len(list))
		if _, ok := used[idx]; ok {
			continue
		}
		used[idx] = struct{}{}
		picked = append(picked, list[idx])
	}
	return picked
}
