package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
)

// Hash returns the hex SHA-256 of data. Scene hashes and file cache paths
// both use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// artifactKey digests a scene hash with the options that shape an artifact.
// The format stays readable in the key ("artifact:svg:<sha256>") so one
// format can be found or dropped with a key pattern.
func artifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	h := sha256.New()
	io.WriteString(h, sceneHash)
	json.NewEncoder(h).Encode(opts)

	format := opts.Format
	if format == "" {
		format = "any"
	}
	return "artifact:" + format + ":" + hex.EncodeToString(h.Sum(nil))
}
