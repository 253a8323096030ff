// Package enrichment resolves canonical organisation names from a company registry.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/models"
)

// Resolver looks up company names and caches the successful answers
type Resolver struct {
	http  *http.Client
	host  string
	cache *lru.Cache[string, string]
	log   *logger.Logger
}

// New creates a registry resolver
func New(cfg config.RegistryConfig, log *logger.Logger) (*Resolver, error) {
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating name cache: %w", err)
	}

	return &Resolver{
		http:  &http.Client{Timeout: cfg.Timeout},
		host:  cfg.Host,
		cache: cache,
		log:   log,
	}, nil
}

// CompanyURL returns the registry URL for a company
func (r *Resolver) CompanyURL(jurisdiction, number string) string {
	return fmt.Sprintf("%s/companies/%s/%s",
		r.host, url.PathEscape(strings.ToLower(jurisdiction)), url.PathEscape(number))
}

// ResolveName returns the registry's name for the company, or fallback when
// the lookup fails in any way. It never returns an error.
func (r *Resolver) ResolveName(ctx context.Context, jurisdiction, number, fallback string) string {
	key := strings.ToLower(jurisdiction) + "/" + number
	if name, ok := r.cache.Get(key); ok {
		r.log.Debugf("Registry name for %s served from cache", key)
		return name
	}

	name, err := r.lookup(ctx, jurisdiction, number)
	if err != nil {
		r.log.With("error_code", errors.CodeOf(err)).
			Warnf("Failed to get info from registry for %s: %v", key, err)
		return fallback
	}

	r.log.Infof("Successfully retrieved %s from registry", key)
	r.cache.Add(key, name)
	return name
}

func (r *Resolver) lookup(ctx context.Context, jurisdiction, number string) (string, error) {
	target := r.CompanyURL(jurisdiction, number)
	r.log.Infof("Getting %s", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.Transport(err, target)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", errors.Transport(err, target)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.ProtocolStatus(target, resp.StatusCode)
	}

	var body models.RegistryCompanyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.MalformedPayload(err)
	}

	name := strings.TrimSpace(body.Results.Company.Name)
	if name == "" {
		return "", errors.MalformedPayload(fmt.Errorf("response has no company name"))
	}

	return name, nil
}
