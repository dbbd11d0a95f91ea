package imaging

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// Signature is a pair of perceptual hashes used for duplicate detection.
// The difference hash is robust against re-encoding and resizing; the
// average hash catches exposure-bracketed shots of the same scene.
type Signature struct {
	DHash *goimagehash.ImageHash
	AHash *goimagehash.ImageHash
}

// ComputeSignature builds the perceptual signature of a decoded image.
func ComputeSignature(img image.Image) (Signature, error) {
	dhash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return Signature{}, fmt.Errorf("computing difference hash: %w", err)
	}
	ahash, err := goimagehash.AverageHash(img)
	if err != nil {
		return Signature{}, fmt.Errorf("computing average hash: %w", err)
	}
	return Signature{DHash: dhash, AHash: ahash}, nil
}

// Distance returns the minimum Hamming distance across the hash pair.
// Taking the minimum keeps slightly different crops of the same scene in
// one group when either hash agrees.
func (s Signature) Distance(other Signature) (int, error) {
	dd, err := s.DHash.Distance(other.DHash)
	if err != nil {
		return 0, fmt.Errorf("comparing difference hashes: %w", err)
	}
	ad, err := s.AHash.Distance(other.AHash)
	if err != nil {
		return 0, fmt.Errorf("comparing average hashes: %w", err)
	}
	if ad < dd {
		return ad, nil
	}
	return dd, nil
}
