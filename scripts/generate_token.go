package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_token.go <user_id> [email] [admin]")
	}

	userID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil || userID == 0 {
		log.Fatal("user_id must be a positive integer")
	}

	email := fmt.Sprintf("user%d@example.com", userID)
	if len(os.Args) > 2 {
		email = os.Args[2]
	}
	isAdmin := len(os.Args) > 3 && os.Args[3] == "admin"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(uint(userID), email, isAdmin)
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	fmt.Printf("User: %d (%s) admin=%t\n", userID, email, isAdmin)
	fmt.Printf("Expires in: %s\n", cfg.JWT.AccessTokenExpiry)
	fmt.Printf("Token: %s\n", token)
}
