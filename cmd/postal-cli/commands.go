package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

// tokenCmd mints a bearer token for a user id. Meant for local
// development and smoke tests, not for issuing production tokens.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long:  "Mint an HS256 bearer token for the given user id, signed with JWT_SIGNING_KEY.",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := viper.GetString("jwt_signing_key")
		if key == "" {
			return errors.New("JWT_SIGNING_KEY is not set (flag --key or POSTAL_JWT_SIGNING_KEY)")
		}
		uid, err := uuid.Parse(tokenUser)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   uid.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API health",
	Long:  "Ping the API health endpoint and report database and cache status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().Health()
	},
}

var (
	sendSubject string
	sendMessage string
)

var sendCmd = &cobra.Command{
	Use:   "send [recipients]",
	Short: "Send a bulk email from pasted recipient text",
	Long: `Send a bulk email. Recipients are passed as a single text argument,
comma or newline separated, in the same format the API accepts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendSubject == "" || sendMessage == "" {
			return errors.New("--subject and --message are required")
		}
		return newClient().SendText(args[0], sendSubject, sendMessage)
	},
}

var logsPage int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List delivery logs",
	Long:  "List delivery logs for the authenticated user, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().ListLogs(logsPage)
	},
}

var templatesCategory string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List stored templates",
	Long:  "List the authenticated user's stored email templates.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().ListTemplates(templatesCategory)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user UUID the token is minted for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().String("key", "", "HS256 signing key (defaults to POSTAL_JWT_SIGNING_KEY)")
	_ = tokenCmd.MarkFlagRequired("user")
	viper.BindPFlag("jwt_signing_key", tokenCmd.Flags().Lookup("key"))

	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "email subject")
	sendCmd.Flags().StringVar(&sendMessage, "message", "", "email body, {{name}} is personalized per recipient")

	logsCmd.Flags().IntVar(&logsPage, "page", 1, "page number")

	templatesCmd.Flags().StringVar(&templatesCategory, "category", "", "filter by category")
}
