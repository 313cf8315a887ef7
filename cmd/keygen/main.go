package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env from project root
	_ = godotenv.Load("../.env")

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run keygen.go <name>")
		os.Exit(1)
	}

	name := os.Args[1]
	secret := os.Getenv("EXPORT_MASTER_SECRET")
	if secret == "" {
		secret = os.Getenv("SG_AUTH__EXPORT_SECRET")
	}
	if secret == "" {
		fmt.Println("Error: EXPORT_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(name))
	signature := hex.EncodeToString(h.Sum(nil))

	exportKey := name + "." + signature
	fmt.Printf("Generated export key for %s:\n%s\n", name, exportKey)
}
