// Command certverify checks a certificate's signature and, optionally, asks a
// running certifier whether its revocation commitment has been spent.
//
//	certverify -key $CERTIFIER_SIGNING_KEY -certifier certifier-dev cert.json
//	certverify -server http://localhost:8080 < cert.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"certifier/internal/revocation/handler"
	"certifier/internal/revocation/models"
	"certifier/internal/signer/jwtsigner"
)

const devSigningKey = "dev-signing-key-change-in-production"

type report struct {
	SerialNumber string `json:"serial_number"`
	Outpoint     string `json:"outpoint"`
	SignatureOK  bool   `json:"signature_ok"`
	Error        string `json:"error,omitempty"`
	Revoked      *bool  `json:"revoked,omitempty"`
}

func main() {
	key := flag.String("key", envOr("CERTIFIER_SIGNING_KEY", devSigningKey), "HMAC signing key")
	certifier := flag.String("certifier", envOr("CERTIFIER_ID", "certifier-dev"), "Expected certifier id")
	server := flag.String("server", "", "Certifier base URL for the revocation check (optional)")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fail(err)
		}
		defer f.Close()
		in = f
	}

	var cert models.Certificate
	if err := json.NewDecoder(in).Decode(&cert); err != nil {
		fail(fmt.Errorf("decode certificate: %w", err))
	}

	verifier, err := jwtsigner.New(*key, *certifier)
	if err != nil {
		fail(err)
	}

	out := report{
		SerialNumber: cert.SerialNumber,
		Outpoint:     cert.RevocationOutpoint.String(),
		SignatureOK:  true,
	}
	if err := verifier.Verify(&cert); err != nil {
		out.SignatureOK = false
		out.Error = err.Error()
	}
	if *server != "" {
		revoked, err := checkRevoked(*server, out.Outpoint)
		if err != nil {
			fail(err)
		}
		out.Revoked = &revoked
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)

	if !out.SignatureOK || (out.Revoked != nil && *out.Revoked) {
		os.Exit(2)
	}
}

func checkRevoked(base, outpoint string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/revocations/"+url.PathEscape(outpoint), nil)
	if err != nil {
		return false, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("query revocation status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("revocation status returned %d", resp.StatusCode)
	}
	var status handler.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("decode revocation status: %w", err)
	}
	return status.Revoked, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "certverify:", err)
	os.Exit(1)
}
