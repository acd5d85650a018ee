package aad

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
)

// DefaultBaseURL is the login host the spray targets unless overridden
const DefaultBaseURL = "https://login.microsoft.com"

// BaseURLForCloud returns the authority host of a named Azure cloud.
// An empty name selects DefaultBaseURL.
func BaseURLForCloud(name string) (string, error) {
	var cfg cloud.Configuration
	switch strings.ToLower(name) {
	case "":
		return DefaultBaseURL, nil
	case "public", "azurepublic":
		cfg = cloud.AzurePublic
	case "china", "azurechina":
		cfg = cloud.AzureChina
	case "usgov", "government", "azuregovernment":
		cfg = cloud.AzureGovernment
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCloud, name)
	}
	return strings.TrimSuffix(cfg.ActiveDirectoryAuthorityHost, "/"), nil
}
