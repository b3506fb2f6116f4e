// Package main is a utility for generating bcrypt hashes of passwords. The
// service stores only bcrypt hashes — never plaintext — so this tool is used
// when manually seeding or resetting an account record in the database without
// running the full server. The resulting hash can be inserted directly into
// the users table.
package main

import (
	"fmt"
	"os"

	"github.com/usergroup-manager/usergroup-manager/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1], auth.DefaultBcryptCost)
	if err != nil {
		panic(err)
	}
	fmt.Println(hash)
}
