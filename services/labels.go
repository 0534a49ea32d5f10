package services

import (
	"context"
	"fmt"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/google/go-github/v55/github"
)

type RepoLabel struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type LabelCreationResult struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Label   string `json:"label"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// FindMissingLabels returns the required labels absent from at least one of
// the repositories, in the order they were required.
func FindMissingLabels(ctx context.Context, client *github.Client, repos []models.RoadmapRepository, required []string) ([]string, error) {
	missing := make(map[string]bool)
	for _, repo := range repos {
		existing, err := listRepoLabels(ctx, client, repo.Owner, repo.Repo)
		if err != nil {
			return nil, err
		}
		for _, name := range required {
			if !existing[name] {
				missing[name] = true
			}
		}
	}

	result := make([]string, 0, len(missing))
	for _, name := range required {
		if missing[name] {
			result = append(result, name)
		}
	}
	return result, nil
}

func listRepoLabels(ctx context.Context, client *github.Client, owner string, repo string) (map[string]bool, error) {
	labels := make(map[string]bool)
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := client.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("error listing labels for %v/%v: %v", owner, repo, err)
		}
		for _, label := range page {
			labels[label.GetName()] = true
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return labels, nil
}

// CreateLabels attempts every repository/label pair independently.
// Best-effort: partial failure is reported per pair, never rolled back.
func CreateLabels(ctx context.Context, client *github.Client, repos []models.RoadmapRepository, labels []RepoLabel) ([]LabelCreationResult, bool) {
	results := make([]LabelCreationResult, 0, len(repos)*len(labels))
	allCreated := true
	for _, repo := range repos {
		for _, label := range labels {
			result := LabelCreationResult{Owner: repo.Owner, Repo: repo.Repo, Label: label.Name}
			_, _, err := client.Issues.CreateLabel(ctx, repo.Owner, repo.Repo, &github.Label{
				Name:        github.String(label.Name),
				Color:       github.String(label.Color),
				Description: github.String(label.Description),
			})
			if err != nil {
				fmt.Printf("failed to create label %v on %v/%v: %v\n", label.Name, repo.Owner, repo.Repo, err)
				result.Error = err.Error()
				allCreated = false
			} else {
				result.Created = true
			}
			results = append(results, result)
		}
	}
	return results, allCreated
}
