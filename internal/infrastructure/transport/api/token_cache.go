package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenCache guarda tokens OAuth2 client-credentials por cliente y endpoint.
// Un token se reutiliza mientras le quede más de un minuto de vida.
type tokenCache struct {
	mu     sync.Mutex
	client *http.Client
	now    func() time.Time
	tokens map[string]cachedToken
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

func newTokenCache(client *http.Client) *tokenCache {
	return &tokenCache{
		client: client,
		now:    time.Now,
		tokens: make(map[string]cachedToken),
	}
}

// Token devuelve un token válido, renovándolo contra el token endpoint si el
// cacheado caducó. Si la configuración no indica endpoint se usa
// <api_endpoint>/oauth/token.
func (c *tokenCache) Token(ctx context.Context, cfg *Config) (string, error) {
	if cfg.OAuth2 == nil || cfg.OAuth2.ClientID == "" || cfg.OAuth2.ClientSecret == "" {
		return "", fmt.Errorf("configuración OAuth2 incompleta")
	}

	endpoint := cfg.OAuth2.TokenEndpoint
	if endpoint == "" {
		endpoint = strings.TrimRight(cfg.Endpoint, "/") + "/oauth/token"
	}
	key := cfg.OAuth2.ClientID + "_" + endpoint

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tokens[key]; ok && cached.expiresAt.After(c.now().Add(time.Minute)) {
		return cached.token, nil
	}

	token, expiresIn, err := c.fetch(ctx, endpoint, cfg.OAuth2)
	if err != nil {
		return "", fmt.Errorf("autenticación OAuth2 fallida: %w", err)
	}

	// El margen de seguridad se aplica solo al leer (la comprobación de
	// frescura de arriba); aquí se guarda la caducidad real.
	c.tokens[key] = cachedToken{
		token:     token,
		expiresAt: c.now().Add(time.Duration(expiresIn) * time.Second),
	}
	return token, nil
}

func (c *tokenCache) fetch(ctx context.Context, endpoint string, oc *OAuth2Config) (string, int64, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", oc.ClientID)
	form.Set("client_secret", oc.ClientSecret)
	form.Set("scope", oc.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("la solicitud del token devolvió %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("respuesta del token inválida: %w", err)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("respuesta del token sin access_token")
	}
	return body.AccessToken, body.ExpiresIn, nil
}
