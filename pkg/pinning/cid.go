package pinning

import (
	"fmt"
	"strings"

	gocid "github.com/ipfs/go-cid"
)

// ValidateCID checks that s parses as a CIDv0 or CIDv1.
func ValidateCID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("empty CID")
	}
	if _, err := gocid.Decode(s); err != nil {
		return fmt.Errorf("invalid CID %q: %w", s, err)
	}
	return nil
}

// CIDFromURL extracts the CID from a gateway URL such as
// https://gateway.pinata.cloud/ipfs/<cid>. It returns "" when the URL has
// no /ipfs/ segment.
func CIDFromURL(u string) string {
	_, rest, ok := strings.Cut(u, "/ipfs/")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
