// Command jwks-to-pem prints the public signing key of the hosted auth
// service as PEM, ready to be used as SUPABASE_JWT_SECRET when the project
// signs tokens asymmetrically.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"stepable/internal/util"

	"github.com/joho/godotenv"
)

const jwksPath = "/auth/v1/.well-known/jwks.json"

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("SUPABASE_URL", "http://127.0.0.1:54321"), "Hosted project URL")
	kid := flag.String("kid", "", "Key ID to export (default: first signing key)")
	flag.Parse()

	if err := run(os.Stdout, strings.TrimRight(*baseURL, "/")+jwksPath, *kid); err != nil {
		fmt.Fprintf(os.Stderr, "jwks-to-pem: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, url, kid string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch JWKS: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read JWKS: %w", err)
	}
	set, err := util.ParseJWKS(body)
	if err != nil {
		return err
	}
	key, err := set.Find(kid)
	if err != nil {
		return err
	}
	pemBytes, err := key.PEM()
	if err != nil {
		return err
	}
	_, err = out.Write(pemBytes)
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
