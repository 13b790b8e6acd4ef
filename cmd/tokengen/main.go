// Command tokengen mints a signed JWT accepted by the gateway, for local
// testing against /ws without the external login service.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"canopy-realtime/auth"
	"canopy-realtime/domain"
)

func main() {
	userID := flag.String("user", "", "durable user identifier (required)")
	name := flag.String("name", "", "display name")
	secret := flag.String("secret", "", "JWT signing secret, must match the server's JWT_SECRET (required)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" || *secret == "" {
		log.Fatal("both -user and -secret are required")
	}

	token, err := auth.NewTokenMaker(*secret).Generate(domain.User{ID: *userID, Name: *name}, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("%s=%s\n", auth.CookieName, token)
}
