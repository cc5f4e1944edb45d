package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/pkg/utils"
)

// devtoken prints a signed bearer token for a user id, for calling the API
// locally without the account service.
func main() {
	userID := flag.String("user", "", "user id to put in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	config.LoadConfig()
	if config.AppConfig.IsProduction() {
		log.Fatal("refusing to mint tokens with the production secret")
	}

	token, err := utils.GenerateToken(*userID, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
