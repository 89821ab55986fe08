package rank

import (
	"fmt"
	"strings"
)

// Variant tags a leaderboard family. Each family has its own key prefix and
// its own persisted name set, so two families can share one store.
type Variant string

const (
	// VariantScore orders members by score only.
	VariantScore Variant = "score"
	// VariantRecency orders equal scores most-recent-first.
	VariantRecency Variant = "recency"
)

// Key prefixes and persisted name-set keys. These are durable names.
const (
	ScorePrefix   = "redisrankd8f9s0k1_"
	RecencyPrefix = "redisrankwithtimestampk2h5s9e7_"

	ScoreNameSetKey   = "Java_Redis_RankORM_Key"
	RecencyNameSetKey = "RedisRankDESCWithTimestamp_RankName_Set_Key"

	hashSuffix = "-hash"
)

// ParseVariant maps a tag such as "score" or "recency" to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantScore, VariantRecency:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidArgument, s)
	}
}

func (v Variant) String() string { return string(v) }

// Prefix returns the namespace prefix of the variant's leaderboard keys.
func (v Variant) Prefix() string {
	if v == VariantRecency {
		return RecencyPrefix
	}
	return ScorePrefix
}

// NameSetKey returns the key of the variant's persisted name set.
func (v Variant) NameSetKey() string {
	if v == VariantRecency {
		return RecencyNameSetKey
	}
	return ScoreNameSetKey
}

// namespace trims name and adds the variant prefix unless it is already there.
// Returns the namespaced key and the caller-visible name.
func (v Variant) namespace(name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("%w: blank leaderboard name", ErrInvalidArgument)
	}
	prefix := v.Prefix()
	if strings.HasPrefix(name, prefix) {
		short := strings.TrimPrefix(name, prefix)
		if strings.TrimSpace(short) == "" {
			return "", "", fmt.Errorf("%w: blank leaderboard name", ErrInvalidArgument)
		}
		return name, short, nil
	}
	return prefix + name, name, nil
}
