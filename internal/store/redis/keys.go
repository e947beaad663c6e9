package redis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// KeyPrefixSuggest is the prefix for every cached suggestion
	KeyPrefixSuggest = "bookmarkd:suggest:"
	// KeyPrefixTitle is the prefix for cached title suggestions
	KeyPrefixTitle = KeyPrefixSuggest + "title:"
	// KeyPrefixTags is the prefix for cached tag/category suggestions
	KeyPrefixTags = KeyPrefixSuggest + "tags:"
)

// urlDigest hashes the url so arbitrary input makes a bounded key.
func urlDigest(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// TitleKey returns the Redis key for the cached title of url
func TitleKey(url string) string {
	return KeyPrefixTitle + urlDigest(url)
}

// TagsKey returns the Redis key for the cached classification of url
func TagsKey(url string) string {
	return KeyPrefixTags + urlDigest(url)
}

// ExtractDigest extracts the url digest from a suggestion key
func ExtractDigest(key string) (string, error) {
	for _, prefix := range []string{KeyPrefixTitle, KeyPrefixTags} {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return key[len(prefix):], nil
		}
	}
	return "", fmt.Errorf("invalid suggestion key: %s", key)
}
