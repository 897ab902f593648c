package gallery

import "github.com/lgulliver/galleon/pkg/utils"

// Hasher produces a content digest and the identifier of the algorithm
// that produced it.
type Hasher interface {
	Hash(content []byte) (algorithm, digest string)
}

// SHA512Hasher is the default content hasher.
type SHA512Hasher struct{}

// Hash returns the hex SHA-512 digest of the content.
func (SHA512Hasher) Hash(content []byte) (string, string) {
	return "SHA512", utils.ComputeSHA512(content)
}
