package persist

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// documentDomainKey separates document checksums from any other BLAKE3
// use of the same bytes. Changing it invalidates every stored checksum.
var documentDomainKey = [32]byte{
	'h', 'a', 'b', 'i', 't', 'q', 'u', 'e', 's', 't', '.', 'd', 'o', 'c', 'u', 'm',
	'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Checksum returns the hex keyed BLAKE3 digest of uncompressed document
// JSON.
func Checksum(data []byte) string {
	hasher, err := blake3.NewKeyed(documentDomainKey[:])
	if err != nil {
		panic("persist: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
