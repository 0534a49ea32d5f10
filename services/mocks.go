package services

import (
	"net/http"

	"github.com/google/go-github/v55/github"
)

// GithubClientMock serves both app and installation clients from a mocked
// HTTP surface so tests never sign app JWTs.
type GithubClientMock struct {
	MockedHTTPClient *http.Client
}

func (m *GithubClientMock) AppClient() (*github.Client, error) {
	return github.NewClient(m.MockedHTTPClient), nil
}

func (m *GithubClientMock) InstallationClient(installationId int64) (*github.Client, error) {
	return github.NewClient(m.MockedHTTPClient), nil
}
