// Command get_token runs the OAuth consent flow once and prints the refresh
// token to put in GOOGLE_REFRESH_TOKEN.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"booking-calendar-sync/internal/infrastructure/oauth"
	"booking-calendar-sync/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	listenAddr  = ":8090"
	callbackURL = "http://localhost:8090/oauth2callback"
)

func main() {
	_ = godotenv.Load()
	log := logger.NewLoggerWithOptions(logger.Options{Level: "info", Format: "console"})

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	auth := oauth.NewGoogleOAuth(clientID, clientSecret, "", log).WithRedirectURL(callbackURL)
	state := uuid.NewString()

	http.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := auth.ExchangeCode(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if token.RefreshToken == "" {
			http.Error(w, "No refresh token returned, revoke access and try again", http.StatusInternalServerError)
			return
		}

		fmt.Printf("\nGOOGLE_REFRESH_TOKEN=%s\n\n", token.RefreshToken)
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		go func() {
			_ = log.Sync()
			os.Exit(0)
		}()
	})

	fmt.Printf("Open this URL in your browser:\n%s\n", auth.GenerateAuthURL(state))

	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		log.Fatal("Callback server failed", "error", err)
	}
}
