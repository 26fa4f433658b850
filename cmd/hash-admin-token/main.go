package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Amund211/japa/internal/app"
)

// Prints the bcrypt hash to put in ADMIN_TOKEN_HASH for the given token.
func main() {
	if len(os.Args) < 2 || os.Args[1] == "" {
		log.Fatal("No admin token provided")
	}

	hash, err := app.HashAdminToken(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to hash admin token: %v", err)
	}

	fmt.Println(hash)
}
