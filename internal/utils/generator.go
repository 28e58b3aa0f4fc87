package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	DefaultShortCodeLength = 7
	// без 0/O, 1/l/I, чтобы код было проще продиктовать
	alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

// CodeGenerator выдает случайные короткие коды фиксированной длины
type CodeGenerator struct {
	length int
}

func NewCodeGenerator(length int) *CodeGenerator {
	if length <= 0 {
		length = DefaultShortCodeLength
	}
	return &CodeGenerator{length: length}
}

func (g *CodeGenerator) Generate() (string, error) {
	return GenerateShortCodeWithLength(g.length)
}

func GenerateShortCodeWithLength(length int) (string, error) {
	code := make([]byte, length)

	for i := range code {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		code[i] = alphabet[randomIndex.Int64()]
	}

	return string(code), nil
}
