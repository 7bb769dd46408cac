package quickbooks

import (
	"golang.org/x/oauth2"
)

const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"

	authURL  = "https://appcenter.intuit.com/connect/oauth2"
	tokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	scope    = "com.intuit.quickbooks.accounting"

	productionBaseURL = "https://quickbooks.api.intuit.com/v3/company"
	sandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com/v3/company"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Environment  string
}

func (c Config) Configured() bool { return c.ClientID != "" }

// BaseURL selects the company API host. Anything other than production
// talks to the sandbox.
func (c Config) BaseURL() string {
	if c.Environment == EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       []string{scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
