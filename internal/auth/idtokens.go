// Package auth verifies caller identity. Callers authenticate with an ID
// token minted by the hosted auth service; this package checks its signature
// against the service's published x509 certs and extracts the principal uid.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const securetokenCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

type IDTokenClaims struct {
	UID   string
	Email string
}

// TokenVerifier verifies RS256 ID tokens for one project. Signing certs are
// cached until the max-age the cert endpoint advertises.
type TokenVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client
	now       func() time.Time

	mu      sync.Mutex
	certs   map[string]*rsa.PublicKey
	refresh time.Time
}

func NewTokenVerifier(projectID string) (*TokenVerifier, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("token verifier project id required")
	}
	return &TokenVerifier{
		projectID: projectID,
		certsURL:  securetokenCertsURL,
		client:    http.DefaultClient,
		now:       time.Now,
	}, nil
}

func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*IDTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("id token has no subject")
	}
	email, _ := claims["email"].(string)

	return &IDTokenClaims{
		UID:   sub,
		Email: strings.TrimSpace(strings.ToLower(email)),
	}, nil
}

func (v *TokenVerifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("id token has no kid header")
		}
		key, err := v.certForKID(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	}
}

func (v *TokenVerifier) certForKID(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.certs[kid]; ok && v.now().Before(v.refresh) {
		return key, nil
	}
	if err := v.refreshCertsLocked(ctx); err != nil {
		return nil, err
	}
	key, ok := v.certs[kid]
	if !ok {
		return nil, fmt.Errorf("no signing cert for kid %q", kid)
	}
	return key, nil
}

func (v *TokenVerifier) refreshCertsLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("build certs request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fetch signing certs: status %d: %s", resp.StatusCode, string(body))
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode signing certs: %w", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(raw))
	for kid, pemCert := range raw {
		key, err := parseCertPublicKey(pemCert)
		if err != nil {
			return fmt.Errorf("parse signing cert %s: %w", kid, err)
		}
		certs[kid] = key
	}

	v.certs = certs
	v.refresh = v.now().Add(certsMaxAge(resp.Header.Get("Cache-Control")))
	return nil
}

func parseCertPublicKey(pemCert string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("cert key is not RSA")
	}
	return key, nil
}

func certsMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(rest); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 5 * time.Minute
}
