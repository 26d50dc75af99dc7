package secrets

import (
	"context"
	"fmt"
	"os"
)

// SecretsAdapter resolves secrets from the function environment. Provider
// credentials are injected as env vars at deploy time; there is no secret
// manager round trip at request time.
type SecretsAdapter struct{}

func (a *SecretsAdapter) GetSecret(ctx context.Context, name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", fmt.Errorf("secret %s not set", name)
	}
	return val, nil
}
