// Package parser classifies GitHub webhook payloads into evidence events.
//
// Parse never fails: payload shapes it does not recognize degrade to an empty
// event list plus a log line saying why, and event names it does not know
// yield zero events silently so new webhook types can be subscribed without
// breaking the gateway.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/besfeng23/kairos-github-gateway/internal/models"
	"github.com/besfeng23/kairos-github-gateway/internal/nodeid"
)

// Result carries everything the handler needs from one delivery: the repo for
// allow-list filtering, the evidence events to forward, and log lines for
// anything that was dropped or missing.
type Result struct {
	RepoFullName string
	Events       []models.EvidenceEvent
	Logs         []string
}

// Workflow name classification, priority order e2e > integration > unit >
// lint. Word boundaries prevent substring hits ("unity" is not "unit").
var (
	reE2E         = regexp.MustCompile(`\be2e\b|\bend[- ]to[- ]end\b`)
	reIntegration = regexp.MustCompile(`\bintegration\b`)
	reUnit        = regexp.MustCompile(`\bunit\b`)
	reLint        = regexp.MustCompile(`\blint\b`)
)

func classifyWorkflow(name string) (models.EventType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	switch {
	case reE2E.MatchString(n):
		return models.EventWorkflowE2EPass, true
	case reIntegration.MatchString(n):
		return models.EventWorkflowIntegrationPass, true
	case reUnit.MatchString(n):
		return models.EventWorkflowUnitPass, true
	case reLint.MatchString(n):
		return models.EventWorkflowLintPass, true
	}
	return "", false
}

// eventTime returns the first parsable candidate re-serialized as RFC 3339
// UTC, falling back to the current time. A slightly wrong timestamp is better
// than a dropped event.
func eventTime(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// identity picks the most specific identity available for the dedupe key:
// PR number, then workflow run id, then commit SHA.
func identity(prNumber, runID *int64, sha string) string {
	if prNumber != nil {
		return strconv.FormatInt(*prNumber, 10)
	}
	if runID != nil {
		return strconv.FormatInt(*runID, 10)
	}
	if sha != "" {
		return sha
	}
	return ""
}

// Parse maps one delivery onto zero or more evidence events. The body must
// already have passed signature verification; it may still be any JSON shape.
func Parse(eventName string, body []byte) Result {
	res := Result{}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		res.Logs = append(res.Logs, fmt.Sprintf("unexpected payload shape (%s): %v", eventName, err))
		return res
	}

	if env.Repository != nil && strings.TrimSpace(env.Repository.FullName) != "" {
		res.RepoFullName = strings.TrimSpace(env.Repository.FullName)
	} else {
		res.Logs = append(res.Logs, "missing repository.full_name")
	}

	switch eventName {
	case "pull_request":
		parsePullRequest(&res, &env)
	case "workflow_run":
		parseWorkflowRun(&res, &env)
	case "release":
		parseRelease(&res, &env)
	default:
		// Unknown event names are not an error; the gateway simply has
		// nothing to say about them.
	}
	return res
}

func parsePullRequest(res *Result, env *envelope) {
	pr := env.PullRequest
	if pr == nil {
		pr = &pullRequest{}
	}

	prNumber := pr.Number
	if prNumber == nil {
		prNumber = env.Number
	}

	var eventType models.EventType
	switch {
	case env.Action == "opened" || env.Action == "reopened":
		eventType = models.EventPROpened
	case env.Action == "closed" && pr.Merged:
		eventType = models.EventPRMerged
	default:
		return
	}

	// Commit messages are not part of the pull_request payload shape.
	resolution := nodeid.Resolve(pr.Title, pr.Head.Ref, nil, pr.Body)
	if len(resolution.IDs) == 0 {
		res.Logs = append(res.Logs, fmt.Sprintf("no nodeId (pull_request %s)", env.Action))
		return
	}

	for _, id := range resolution.IDs {
		res.Events = append(res.Events, models.EvidenceEvent{
			EventTime:  eventTime(pr.UpdatedAt, pr.CreatedAt),
			EventType:  eventType,
			Actor:      "github",
			Source:     "github",
			NodeID:     id,
			Confidence: models.Weights[eventType],
			Payload: map[string]interface{}{
				"repo":       res.RepoFullName,
				"pr_number":  prNumber,
				"pr_url":     pr.HTMLURL,
				"sha":        pr.Head.SHA,
				"branch":     pr.Head.Ref,
				"dedupe_key": models.DedupeKey(eventType, res.RepoFullName, identity(prNumber, nil, pr.Head.SHA), id),
			},
		})
	}
}

func parseWorkflowRun(res *Result, env *envelope) {
	run := env.WorkflowRun
	if run == nil {
		run = &workflowRun{}
	}
	if env.Action != "completed" || run.Conclusion != "success" {
		return
	}

	eventType, ok := classifyWorkflow(run.Name)
	if !ok {
		res.Logs = append(res.Logs, fmt.Sprintf("unmapped workflow_run name: %s", run.Name))
		return
	}

	var commitMessages []string
	if run.HeadCommit != nil && run.HeadCommit.Message != "" {
		commitMessages = []string{run.HeadCommit.Message}
	}

	resolution := nodeid.Resolve(run.DisplayTitle, run.HeadBranch, commitMessages, "")
	if len(resolution.IDs) == 0 {
		res.Logs = append(res.Logs, "no nodeId (workflow_run success)")
		return
	}

	for _, id := range resolution.IDs {
		res.Events = append(res.Events, models.EvidenceEvent{
			EventTime:  eventTime(run.UpdatedAt, run.RunStartedAt),
			EventType:  eventType,
			Actor:      "github",
			Source:     "github",
			NodeID:     id,
			Confidence: models.Weights[eventType],
			Payload: map[string]interface{}{
				"repo":       res.RepoFullName,
				"workflow":   run.Name,
				"run_id":     run.ID,
				"sha":        run.HeadSHA,
				"branch":     run.HeadBranch,
				"conclusion": "success",
				"dedupe_key": models.DedupeKey(eventType, res.RepoFullName, identity(nil, run.ID, run.HeadSHA), id),
			},
		})
	}
}

func parseRelease(res *Result, env *envelope) {
	if env.Action != "published" {
		return
	}
	rel := env.Release
	if rel == nil {
		rel = &release{}
	}

	title := rel.Name
	if title == "" {
		title = rel.TagName
	}

	resolution := nodeid.Resolve(title, rel.TargetCommitish, nil, rel.Body)
	if len(resolution.IDs) == 0 {
		res.Logs = append(res.Logs, "no nodeId (release published)")
		return
	}

	eventType := models.EventReleasePublished
	for _, id := range resolution.IDs {
		res.Events = append(res.Events, models.EvidenceEvent{
			EventTime:  eventTime(rel.PublishedAt, rel.CreatedAt),
			EventType:  eventType,
			Actor:      "github",
			Source:     "github",
			NodeID:     id,
			Confidence: models.Weights[eventType],
			Payload: map[string]interface{}{
				"repo": res.RepoFullName,
				"release": map[string]interface{}{
					"id":       rel.ID,
					"name":     rel.Name,
					"tag_name": rel.TagName,
					"url":      rel.HTMLURL,
				},
				"dedupe_key": models.DedupeKey(eventType, res.RepoFullName, identity(nil, nil, rel.TagName), id),
			},
		})
	}
}
