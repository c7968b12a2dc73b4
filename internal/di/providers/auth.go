package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/auth"
	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
)

// AuthKey wraps the token signing key bytes.
type AuthKey []byte

// ProvideAuthKey uses AUTH_KEY when set, otherwise loads or generates the
// key file under the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		key    []byte
		err    error
		source = "env"
	)
	if cfg.Auth.KeyHex != "" {
		key, err = auth.DecodeKey(cfg.Auth.KeyHex)
	} else {
		source = cfg.Data.KeyPath()
		key, err = auth.LoadOrGenerateKey(source)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"source", source,
		"token_ttl", cfg.Auth.TokenTTL,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenTTL)
}
