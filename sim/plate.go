package sim

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// Mercosul plate layout: three letters, digit, letter, two digits.
var plateRE = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)

// GeneratePlate returns a random Mercosul-format plate (LLLNLNN) drawn
// from the given RNG so fleets are reproducible under a fixed seed.
func GeneratePlate(rng *rand.Rand) string {
	var sb strings.Builder
	for i := 0; i < 3; i++ {
		sb.WriteByte(byte('A' + rng.Intn(26)))
	}
	sb.WriteByte(byte('0' + rng.Intn(10)))
	sb.WriteByte(byte('A' + rng.Intn(26)))
	sb.WriteByte(byte('0' + rng.Intn(10)))
	sb.WriteByte(byte('0' + rng.Intn(10)))
	return sb.String()
}

// ValidPlate reports whether p is a well-formed Mercosul plate.
func ValidPlate(p string) bool {
	return plateRE.MatchString(p)
}

// resolvePlate returns the supplied plate (upper-cased) after validation,
// or generates a fresh one when the supplied plate is empty.
func resolvePlate(plate string, rng *rand.Rand) (string, error) {
	if plate == "" {
		return GeneratePlate(rng), nil
	}
	plate = strings.ToUpper(plate)
	if !ValidPlate(plate) {
		return "", fmt.Errorf("plate %q does not follow the Mercosul format", plate)
	}
	return plate, nil
}
