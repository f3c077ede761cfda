package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// EntryUUID identifies a catalog row across runs.
func EntryUUID(kind, id string) uuid.UUID {
	return UUID("jszoo:" + strings.ToLower(strings.TrimSpace(kind)) + ":" + strings.TrimSpace(id))
}

// BenchUUID identifies one bench entry of a row.
func BenchUUID(entryID uuid.UUID, arch, variant string) uuid.UUID {
	return UUID("jszoo:bench:" + entryID.String() + ":" + strings.TrimSpace(arch) + "/" + strings.TrimSpace(variant))
}

// RunID returns a fresh random identifier for one update run.
func RunID() string {
	return uuid.NewString()
}
