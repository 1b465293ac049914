package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
)

// InitAuthKeys builds the process-wide KeyManager.
//
// Supported algorithms:
//   - "HS256": symmetric, the secret comes from AUTH_JWT_SECRET. Every
//     service that validates tokens needs the same secret.
//   - "EdDSA": Ed25519 loaded from AUTH_PRIVATE_KEY_FILE. Without a file an
//     ephemeral key is generated and all tokens die with the process.
//
// AUTH_RETIRED_SECRETS keeps old HS256 keys verify-only so tokens signed
// before a key change stay valid until they expire.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	retired, err := parseRetiredSecrets(cfg.RetiredSecrets)
	if err != nil {
		return nil, fmt.Errorf("parse retired secrets: %w", err)
	}

	opts := jwtx.KeyManagerOptions{
		Algorithm:      cfg.Algorithm,
		KeyID:          cfg.KeyID,
		RetiredSecrets: retired,
		Issuer:         cfg.Issuer,
		Audience:       cfg.Audience,
		Leeway:         cfg.ClockLeeway,
	}

	switch cfg.Algorithm {
	case jwtx.AlgorithmHS256:
		opts.Secret, err = cryptox.DecodeSecret(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("decode AUTH_JWT_SECRET: %w", err)
		}
	case jwtx.AlgorithmEdDSA:
		if cfg.PrivateKeyFile != "" {
			opts.PrivateKeyPEM, err = os.ReadFile(cfg.PrivateKeyFile)
			if err != nil {
				return nil, fmt.Errorf("read private key: %w", err)
			}
		}
	}

	keyManager, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing key loaded",
		"algorithm", keyManager.Algorithm(),
		"kid", cfg.KeyID,
		"retired_keys", len(retired),
		"issuer", cfg.Issuer,
	)
	if cfg.Algorithm == jwtx.AlgorithmEdDSA && cfg.PrivateKeyFile == "" {
		logger.Warn("using an ephemeral signing key, all tokens become invalid on restart")
	}

	return keyManager, nil
}

// parseRetiredSecrets reads "kid:base64,kid:base64".
func parseRetiredSecrets(s string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, entry := range splitList(s) {
		kid, secret, ok := strings.Cut(entry, ":")
		kid = strings.TrimSpace(kid)
		if !ok || kid == "" {
			return nil, fmt.Errorf("entry %q is not kid:secret", entry)
		}
		if _, dup := out[kid]; dup {
			return nil, fmt.Errorf("duplicate kid %q", kid)
		}
		b, err := cryptox.DecodeSecret(secret)
		if err != nil {
			return nil, fmt.Errorf("kid %q: %w", kid, err)
		}
		if len(b) < jwtx.MinHMACSecretSize {
			return nil, fmt.Errorf("kid %q: secret must be at least %d bytes", kid, jwtx.MinHMACSecretSize)
		}
		out[kid] = b
	}
	return out, nil
}
