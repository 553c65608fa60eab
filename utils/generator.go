package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const receiptCodeLength = 10
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReceipt builds the uniqueness-bearing receipt sent with every gateway
// order. Razorpay caps receipts at 40 characters.
func GenerateReceipt(prefix string) string {
	b := make([]byte, receiptCodeLength)
	max := big.NewInt(int64(len(letterBytes)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b[i] = letterBytes[n.Int64()]
	}
	receipt := prefix + "_" + time.Now().UTC().Format("060102") + "_" + string(b)
	if len(receipt) > 40 {
		receipt = receipt[len(receipt)-40:]
	}
	return receipt
}
