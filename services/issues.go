package services

import (
	"context"
	"time"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/google/go-github/v55/github"
	"golang.org/x/sync/errgroup"
)

type IssueLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue is the normalized, ephemeral view of a GitHub issue. Everything
// GitHub returns beyond these fields (author identity, reactions, ...) is
// dropped at this boundary so the public read path never sees it.
type Issue struct {
	Id        int64        `json:"id"`
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	State     string       `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Labels    []IssueLabel `json:"labels"`
	Comments  int          `json:"comments"`
	// HtmlUrl is carried through so the caller can redact it for
	// non-members; the fetcher itself applies no visibility rule.
	HtmlUrl   string `json:"html_url,omitempty"`
	VoteCount int    `json:"voteCount"`
}

type CommentAuthor struct {
	Login     string `json:"login"`
	AvatarUrl string `json:"avatar_url"`
	HtmlUrl   string `json:"html_url"`
}

type Comment struct {
	Id        int64          `json:"id"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Author    *CommentAuthor `json:"author,omitempty"`
}

// FetchIssues retrieves the issues carrying the roadmap's primary label for
// every repository, one result list per repository in input order. Fetches
// run concurrently; any failing repository fails the whole call.
func FetchIssues(ctx context.Context, client *github.Client, repos []models.RoadmapRepository, label string) ([][]Issue, error) {
	results := make([][]Issue, len(repos))
	g, ctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			issues, err := fetchRepoIssues(ctx, client, repo.Owner, repo.Repo, label)
			if err != nil {
				return err
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchRepoIssues(ctx context.Context, client *github.Client, owner string, repo string, label string) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Labels:      []string{label},
		ListOptions: github.ListOptions{PerPage: 100},
	}

	issues := make([]Issue, 0)
	for {
		page, resp, err := client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			issues = append(issues, normalizeIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

func normalizeIssue(issue *github.Issue) Issue {
	labels := make([]IssueLabel, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, IssueLabel{Name: label.GetName(), Color: label.GetColor()})
	}
	return Issue{
		Id:        issue.GetID(),
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		Labels:    labels,
		Comments:  issue.GetComments(),
		HtmlUrl:   issue.GetHTMLURL(),
	}
}

// FetchComments returns a roadmap issue's comments as optional enrichment:
// a disabled roadmap short-circuits without calling GitHub, and a missing
// issue degrades to an empty list instead of failing the read.
func FetchComments(ctx context.Context, client *github.Client, roadmap *models.Roadmap, owner string, repo string, issueNumber int) ([]Comment, error) {
	comments := make([]Comment, 0)
	if !roadmap.ShowComments {
		return comments, nil
	}

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := client.Issues.ListComments(ctx, owner, repo, issueNumber, opts)
		if err != nil {
			if isNotFound(err) {
				return []Comment{}, nil
			}
			return nil, err
		}
		for _, comment := range page {
			normalized := Comment{
				Id:        comment.GetID(),
				Body:      comment.GetBody(),
				CreatedAt: comment.GetCreatedAt().Time,
				UpdatedAt: comment.GetUpdatedAt().Time,
			}
			if roadmap.ShowCommentProfiles && comment.User != nil {
				normalized.Author = &CommentAuthor{
					Login:     comment.User.GetLogin(),
					AvatarUrl: comment.User.GetAvatarURL(),
					HtmlUrl:   comment.User.GetHTMLURL(),
				}
			}
			comments = append(comments, normalized)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}
