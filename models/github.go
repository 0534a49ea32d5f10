package models

import "time"

// GithubInstallation links a GitHub App installation to an organisation.
// The installation id is stored in the string form GitHub reports in
// callback query parameters. In practice there is at most one row per
// organisation and lookups take the first match.
type GithubInstallation struct {
	InstallationId string `gorm:"primary_key"`
	OrganisationID uint   `gorm:"index:idx_github_installation_org"`
	Organisation   *Organisation
	CreatedAt      time.Time
}
