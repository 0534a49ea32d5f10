package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (db *Database) CreateOrganisation(name string, externalSource string, externalId string) (*Organisation, error) {
	org := &Organisation{Name: name, ExternalSource: externalSource, ExternalId: externalId}
	result := db.GormDB.Save(org)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save organisation to database. %v", result.Error)
	}
	return org, nil
}

func (db *Database) GetOrganisationById(orgId any) (*Organisation, error) {
	org := Organisation{}
	err := db.GormDB.Where("id = ?", orgId).First(&org).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching organisation: %v", err)
	}
	return &org, nil
}

func (db *Database) CreateToken(orgId uint, tokenType string) (*Token, error) {
	// prefixing token to make easier to retire this type of tokens later
	token := &Token{
		Value:          "t:" + uuid.New().String(),
		OrganisationID: orgId,
		Type:           tokenType,
	}
	err := db.GormDB.Create(token).Error
	if err != nil {
		return nil, err
	}
	return token, nil
}

// GetRoadmapBySlug returns (nil, nil) when no roadmap carries the slug.
func (db *Database) GetRoadmapBySlug(slug string) (*Roadmap, error) {
	roadmap := Roadmap{}
	result := db.GormDB.Where("slug = ?", slug).Find(&roadmap)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	if roadmap.ID == 0 {
		return nil, nil
	}
	return &roadmap, nil
}

// GetRoadmap scopes the lookup to the owning organisation. Returns
// (nil, nil) when the roadmap does not exist or belongs to another org.
func (db *Database) GetRoadmap(orgId any, roadmapId any) (*Roadmap, error) {
	roadmap := Roadmap{}
	result := db.GormDB.Where("id = ? AND organisation_id = ?", roadmapId, orgId).Find(&roadmap)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	if roadmap.ID == 0 {
		return nil, nil
	}
	return &roadmap, nil
}

func (db *Database) ListRoadmaps(orgId any) ([]Roadmap, error) {
	roadmaps := make([]Roadmap, 0)
	result := db.GormDB.Where("organisation_id = ?", orgId).Find(&roadmaps)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	return roadmaps, nil
}

// SlugTaken reports whether another roadmap already owns the slug.
func (db *Database) SlugTaken(slug string, excludeRoadmapId uint) (bool, error) {
	var count int64
	err := db.GormDB.Model(&Roadmap{}).Where("slug = ? AND id <> ?", slug, excludeRoadmapId).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *Database) CreateRoadmap(roadmap *Roadmap) error {
	if roadmap.PlannedLabel == "" {
		roadmap.PlannedLabel = DefaultPlannedLabel
	}
	if roadmap.InProgressLabel == "" {
		roadmap.InProgressLabel = DefaultInProgressLabel
	}
	if roadmap.DoneLabel == "" {
		roadmap.DoneLabel = DefaultDoneLabel
	}
	if roadmap.ClosedIssueBehavior == "" {
		roadmap.ClosedIssueBehavior = ClosedIssueFilter
	}
	return db.GormDB.Create(roadmap).Error
}

func (db *Database) UpdateRoadmap(roadmap *Roadmap) error {
	return db.GormDB.Save(roadmap).Error
}

// DeleteRoadmap removes the roadmap together with its repository links and
// votes.
func (db *Database) DeleteRoadmap(roadmap *Roadmap) error {
	err := db.GormDB.Where("roadmap_id = ?", roadmap.ID).Delete(&RoadmapRepository{}).Error
	if err != nil {
		return err
	}
	err = db.GormDB.Where("roadmap_id = ?", roadmap.ID).Delete(&IssueVote{}).Error
	if err != nil {
		return err
	}
	return db.GormDB.Delete(roadmap).Error
}

func (db *Database) GetRoadmapRepositories(roadmapId uint) ([]RoadmapRepository, error) {
	repos := make([]RoadmapRepository, 0)
	result := db.GormDB.Where("roadmap_id = ?", roadmapId).Order("id").Find(&repos)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	return repos, nil
}

// ReplaceRoadmapRepositories swaps the full repository set of a roadmap.
// The caller validates the set size before any external call is made.
func (db *Database) ReplaceRoadmapRepositories(roadmapId uint, repos []RoadmapRepository) error {
	err := db.GormDB.Where("roadmap_id = ?", roadmapId).Delete(&RoadmapRepository{}).Error
	if err != nil {
		return err
	}
	for i := range repos {
		repos[i].ID = 0
		repos[i].RoadmapID = roadmapId
		err = db.GormDB.Create(&repos[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateIssueVote appends an anonymous vote. No deduplication: each call is
// an independent insert.
func (db *Database) CreateIssueVote(orgId uint, roadmapId uint, issueId string) (*IssueVote, error) {
	vote := &IssueVote{
		ID:             uuid.New().String(),
		OrganisationID: orgId,
		RoadmapID:      roadmapId,
		IssueId:        issueId,
		CreatedAt:      time.Now(),
	}
	err := db.GormDB.Create(vote).Error
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// DeleteIssueVote retracts a vote by id. Possession of the id is the only
// credential required.
func (db *Database) DeleteIssueVote(voteId string) (bool, error) {
	result := db.GormDB.Where("id = ?", voteId).Delete(&IssueVote{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (db *Database) CountVotesByIssue(roadmapId uint) (map[string]int, error) {
	rows := make([]struct {
		IssueId string
		Count   int
	}, 0)
	err := db.GormDB.Model(&IssueVote{}).
		Select("issue_id, count(*) as count").
		Where("roadmap_id = ?", roadmapId).
		Group("issue_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.IssueId] = row.Count
	}
	return counts, nil
}

func (db *Database) CreateGithubInstallation(installationId string, orgId uint) (*GithubInstallation, error) {
	installation := GithubInstallation{}
	result := db.GormDB.Where("installation_id = ?", installationId).Find(&installation)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	if result.RowsAffected > 0 {
		if installation.OrganisationID != orgId {
			return nil, fmt.Errorf("GitHub app installation %v already linked to another org", installationId)
		}
		// record already exist, do nothing
		return &installation, nil
	}

	installation = GithubInstallation{InstallationId: installationId, OrganisationID: orgId}
	err := db.GormDB.Create(&installation).Error
	if err != nil {
		return nil, err
	}
	return &installation, nil
}

// GetGithubInstallationForOrg takes the first match; in practice an org has
// at most one installation.
func (db *Database) GetGithubInstallationForOrg(orgId any) (*GithubInstallation, error) {
	installation := GithubInstallation{}
	result := db.GormDB.Where("organisation_id = ?", orgId).Order("created_at").Find(&installation)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, result.Error
		}
	}
	if installation.InstallationId == "" {
		return nil, nil
	}
	return &installation, nil
}

func (db *Database) DeleteGithubInstallation(installationId string) error {
	return db.GormDB.Where("installation_id = ?", installationId).Delete(&GithubInstallation{}).Error
}
