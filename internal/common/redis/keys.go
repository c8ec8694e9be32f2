package redis

const paginationTotalKeyPrefix = "pagination_total_"

// KeyGenerator provides Redis key generation for pagination state
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a KeyGenerator. prefix namespaces every key and
// may be empty.
func NewKeyGenerator(prefix string) *KeyGenerator {
	return &KeyGenerator{prefix: prefix}
}

// PaginationTotalKey returns the key holding a listing's cached total page count
// Format: {prefix}pagination_total_{contentID}
func (kg *KeyGenerator) PaginationTotalKey(contentID string) string {
	return kg.prefix + paginationTotalKeyPrefix + contentID
}
