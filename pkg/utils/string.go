package utils

import (
	"math/rand"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Referral codes avoid lowercase and ambiguous characters so they survive
// being read aloud or typed from a shared screenshot.
const referralCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var randSource = rand.NewSource(time.Now().UnixNano())
var randGenerator = rand.New(randSource)

func GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[randGenerator.Intn(len(charset))]
	}
	return string(b)
}

func GenerateReferralCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = referralCharset[randGenerator.Intn(len(referralCharset))]
	}
	return string(b)
}
