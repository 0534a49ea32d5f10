package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v55/github"
)

var ErrInstallationNotFound = errors.New("github installation not found")

// GithubClientProvider mints GitHub clients. The default implementation
// signs with the app's private key; tests swap in a mocked HTTP surface.
type GithubClientProvider interface {
	AppClient() (*github.Client, error)
	InstallationClient(installationId int64) (*github.Client, error)
}

type DefaultGithubClientProvider struct{}

func appCredentials() (int64, []byte, error) {
	appId, err := strconv.ParseInt(os.Getenv("GITHUB_APP_ID"), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("error parsing GITHUB_APP_ID: %v", err)
	}
	privateKey := os.Getenv("GITHUB_APP_PRIVATE_KEY")
	if privateKey == "" {
		return 0, nil, fmt.Errorf("no GITHUB_APP_PRIVATE_KEY provided")
	}
	return appId, []byte(privateKey), nil
}

func (p DefaultGithubClientProvider) AppClient() (*github.Client, error) {
	appId, privateKey, err := appCredentials()
	if err != nil {
		return nil, err
	}
	atr, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appId, privateKey)
	if err != nil {
		return nil, fmt.Errorf("error initialising app transport: %v", err)
	}
	return github.NewClient(&http.Client{Transport: atr}), nil
}

func (p DefaultGithubClientProvider) InstallationClient(installationId int64) (*github.Client, error) {
	appId, privateKey, err := appCredentials()
	if err != nil {
		return nil, err
	}
	itr, err := ghinstallation.New(http.DefaultTransport, appId, installationId, privateKey)
	if err != nil {
		return nil, fmt.Errorf("error initialising installation: %v", err)
	}
	return github.NewClient(&http.Client{Transport: itr}), nil
}

// ResolveInstallation looks up the organisation's stored installation,
// verifies GitHub still accepts it, and returns a client scoped to it.
// When GitHub reports the installation gone the local record is deleted
// before failing, so installations removed directly on GitHub heal without
// waiting for a webhook.
func ResolveInstallation(ctx context.Context, db *models.Database, provider GithubClientProvider, orgId uint) (*github.Client, *models.GithubInstallation, error) {
	installation, err := db.GetGithubInstallationForOrg(orgId)
	if err != nil {
		return nil, nil, err
	}
	if installation == nil {
		return nil, nil, ErrInstallationNotFound
	}

	installationId, err := strconv.ParseInt(installation.InstallationId, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing installation id %v: %v", installation.InstallationId, err)
	}

	appClient, err := provider.AppClient()
	if err != nil {
		return nil, nil, err
	}

	_, _, err = appClient.Apps.GetInstallation(ctx, installationId)
	if err != nil {
		if isNotFound(err) {
			fmt.Printf("installation %v no longer exists on GitHub, removing local record\n", installation.InstallationId)
			delErr := db.DeleteGithubInstallation(installation.InstallationId)
			if delErr != nil {
				return nil, nil, delErr
			}
			return nil, nil, ErrInstallationNotFound
		}
		return nil, nil, err
	}

	client, err := provider.InstallationClient(installationId)
	if err != nil {
		return nil, nil, err
	}
	return client, installation, nil
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}
