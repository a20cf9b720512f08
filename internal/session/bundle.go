package session

import (
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/domain"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// storageState is the browser storage_state.json written by the login step.
type storageState struct {
	Cookies []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Domain string `json:"domain"`
		Path   string `json:"path"`
	} `json:"cookies"`
	Origins []struct {
		Origin string `json:"origin"`
	} `json:"origins"`
}

var cookieDomains = []string{"google.com", "googleusercontent.com"}

// ParseBundle reads a storage state document and keeps the cookies the
// service accepts.
func ParseBundle(data []byte) (domain.CredentialBundle, error) {
	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.CredentialBundle{}, fmt.Errorf("decode storage state: %w", err)
	}

	bundle := domain.CredentialBundle{}
	for _, c := range state.Cookies {
		if c.Name == "" || !allowedDomain(c.Domain) {
			continue
		}
		bundle.Cookies = append(bundle.Cookies, domain.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	for _, o := range state.Origins {
		if o.Origin != "" {
			bundle.Origins = append(bundle.Origins, o.Origin)
		}
	}

	if err := bundle.Validate(); err != nil {
		return domain.CredentialBundle{}, err
	}
	return bundle, nil
}

func allowedDomain(raw string) bool {
	host := strings.ToLower(strings.TrimPrefix(raw, "."))
	for _, d := range cookieDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
