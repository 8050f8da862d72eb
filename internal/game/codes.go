package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"

	"shapechat/internal/store"
)

const (
	// JoinCodeLength is the length of generated join codes
	JoinCodeLength = 5

	// JoinCodeChars are the characters used for join codes (excluding ambiguous chars)
	JoinCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateJoinCode creates a random join code
func GenerateJoinCode() string {
	code := make([]byte, JoinCodeLength)
	for i := range JoinCodeLength {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(JoinCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = JoinCodeChars[rand.Intn(len(JoinCodeChars))]
			continue
		}
		code[i] = JoinCodeChars[n.Int64()]
	}
	return string(code)
}

// UniqueJoinCode generates a join code not used by any live game
func UniqueJoinCode(s store.Store) string {
	for {
		code := GenerateJoinCode()
		if _, exists := s.GetGameByCode(code); !exists {
			return code
		}
	}
}
