package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every SDK call unless HTTPClient is replaced.
const DefaultTimeout = 10 * time.Second

// SDKClient is a thin client for the SilverBridge auth endpoints, used by
// sibling services and by the HTTP tests.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}
