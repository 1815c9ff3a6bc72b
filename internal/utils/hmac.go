package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SignatureHeader carries the HMAC of an outbound webhook body
const SignatureHeader = "X-Signature"

// SignHMAC returns the hex HMAC-SHA256 of payload under secret
func SignHMAC(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC checks a signature produced by SignHMAC in constant time
func VerifyHMAC(payload []byte, signature, secret string) bool {
	expected := SignHMAC(payload, secret)
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}
