package main

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/orda/app/orda/internal/server"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
)

var (
	tokenSubject string
	tokenTTL     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin token for the pipeline refresh and catalog import routes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bc, closeConf, err := loadBootstrap()
		if err != nil {
			return err
		}
		defer closeConf()

		ttl := tokenTTL
		if ttl == "" && bc.Auth != nil {
			ttl = bc.Auth.TokenTtl
		}
		now := time.Now()
		token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.RegisteredClaims{
			Subject:   tokenSubject,
			Issuer:    Name,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(config.Duration(ttl, 24*time.Hour))),
		})
		signed, err := token.SignedString([]byte(server.JWTKey(bc.Auth)))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().StringVar(&tokenTTL, "ttl", "", "token lifetime (defaults to auth.token_ttl or 24h)")
}
