package tokenizer

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// ProgramKey is the address of the yield tokenizer program.
//
// Current key: LSDjBzV1CdC4zeXETyLnoUddeBeQAvXXRo49j8rSguH
var ProgramKey = ed25519.PublicKey(mustBase58Decode("LSDjBzV1CdC4zeXETyLnoUddeBeQAvXXRo49j8rSguH"))

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
