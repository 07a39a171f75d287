package types

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
)

// RuntimeKey is the deterministic identity the Registry deduplicates loaded
// instances on (§3, §4.1). Two specs with an identical tuple MUST share one
// loaded instance.
type RuntimeKey struct {
	Task        Task
	ProviderID  string
	ModelID     string
	Revision    string
	OptionsHash uint64
}

// KeyOf derives a RuntimeKey from an AliasSpec. It is deterministic:
// repeated calls on equal specs yield equal keys in-process and across
// process restarts, because the hash algorithm is fixed and does not depend
// on map iteration order, pointer identity, or process state.
func KeyOf(spec *AliasSpec) RuntimeKey {
	h := fnv.New64a()
	hashOptions(spec.Options, h)
	return RuntimeKey{
		Task:        spec.Task,
		ProviderID:  spec.ProviderID,
		ModelID:     spec.ModelID,
		Revision:    spec.Revision,
		OptionsHash: h.Sum64(),
	}
}

// Discriminant bytes written before each JSON-shaped value so that
// structurally different values (e.g. null vs false, or "absent options"
// vs an empty object) never collide.
const (
	tagAbsent byte = 0
	tagNull   byte = 1
	tagBool   byte = 2
	tagNumber byte = 3
	tagString byte = 4
	tagArray  byte = 5
	tagObject byte = 6
)

// hashOptions hashes the options tree. A nil map (no "options" key in the
// spec at all) is distinct from an empty, non-nil map (an explicit `{}`).
func hashOptions(options map[string]any, h interface{ Write([]byte) (int, error) }) {
	if options == nil {
		h.Write([]byte{tagAbsent})
		return
	}
	hashValue(options, h)
}

func hashValue(v any, h interface{ Write([]byte) (int, error) }) {
	switch val := v.(type) {
	case nil:
		h.Write([]byte{tagNull})
	case bool:
		h.Write([]byte{tagBool})
		if val {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case string:
		h.Write([]byte{tagString})
		h.Write([]byte(val))
	case map[string]any:
		h.Write([]byte{tagObject})
		writeUvarint(h, uint64(len(val)))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			hashValue(val[k], h)
		}
	case []any:
		h.Write([]byte{tagArray})
		writeUvarint(h, uint64(len(val)))
		for _, elem := range val {
			hashValue(elem, h)
		}
	default:
		if s, ok := normalizeNumber(val); ok {
			h.Write([]byte{tagNumber})
			h.Write([]byte(s))
			return
		}
		// Fall back to a stable JSON-encoded representation for any other
		// concrete type (e.g. a custom Stringer passed in programmatically).
		h.Write([]byte{tagString})
		b, _ := json.Marshal(val)
		h.Write(b)
	}
}

func writeUvarint(h interface{ Write([]byte) (int, error) }, n uint64) {
	var buf [10]byte
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf[i] = b
		i++
		if n == 0 {
			break
		}
	}
	h.Write(buf[:i])
}

// normalizeNumber canonicalizes any numeric Go representation (the float64
// encoding/json produces, the integer types a caller might build an
// AliasSpec.Options tree with programmatically, or json.Number when decoded
// with UseNumber) to a stable textual form so that e.g. 1 and 1.0 hash
// identically.
func normalizeNumber(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return canonicalFloat(float64(n)), true
	case float64:
		return canonicalFloat(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return string(n), true
		}
		return canonicalFloat(f), true
	default:
		return "", false
	}
}

// canonicalFloat renders f as an integer string when it represents a whole
// number exactly representable in that form, and as the shortest
// round-tripping decimal otherwise.
func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
