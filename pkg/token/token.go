package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	errGenerateRandomBytesFmt = "failed to generate random bytes: %w"
	errByteLengthPositiveFmt  = "byteLength must be positive"
)

// URLSafe returns byteLength random bytes encoded as unpadded base64url
func URLSafe(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf(errByteLengthPositiveFmt)
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf(errGenerateRandomBytesFmt, err)
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
