package app

import (
	"fmt"
	"log/slog"

	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
)

// InitKeys builds the token KeyManager.
//
// With PORTAL_SIGNING_KEY_FILE set the Ed25519 key is read from that file,
// created on first start, and tokens survive restarts. Without it a key is
// generated in memory and every outstanding access token dies with the
// process. Refresh cookies are unaffected either way since they live in the
// database.
func InitKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	}

	if cfg.SigningKeyFile != "" {
		pem, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, err
		}
		opts.PEM = pem
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("init signing key: %w", err)
	}

	if cfg.SigningKeyFile == "" {
		logger.Warn("using an ephemeral signing key; access tokens are invalidated on restart")
	} else {
		logger.Info("signing key loaded", slog.String("kid", km.Signer.KID()))
	}
	return km, nil
}
