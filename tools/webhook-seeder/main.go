// webhook-seeder posts signed synthetic GitHub webhook deliveries at a
// running gateway, for load testing and end-to-end smoke checks.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/besfeng23/kairos-github-gateway/internal/signature"
)

var (
	gatewayURL = flag.String("gateway-url", "http://localhost:8080", "Gateway base URL")
	secret     = flag.String("secret", "", "Webhook HMAC secret (required)")
	count      = flag.Int("count", 100, "Number of deliveries to generate")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Interval between deliveries")
	repo       = flag.String("repo", "", "Repository full name (random if empty)")
	eventKinds = flag.String("events", "pull_request,workflow_run,release", "Comma-separated event names to generate")
)

func main() {
	flag.Parse()

	if *secret == "" {
		log.Fatal("Webhook secret is required. Use -secret flag")
	}

	gofakeit.Seed(time.Now().UnixNano())

	kinds := strings.Split(*eventKinds, ",")
	log.Printf("Starting webhook seeder:")
	log.Printf("  Gateway URL: %s", *gatewayURL)
	log.Printf("  Delivery count: %d", *count)
	log.Printf("  Interval: %v", *interval)
	log.Printf("  Event kinds: %v", kinds)

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		kind := strings.TrimSpace(kinds[rand.Intn(len(kinds))])
		body, err := json.Marshal(generatePayload(kind))
		if err != nil {
			log.Printf("Failed to marshal payload: %v", err)
			failCount++
			continue
		}

		if err := send(client, kind, body); err != nil {
			log.Printf("Failed to send %s delivery: %v", kind, err)
			failCount++
		} else {
			successCount++
			if successCount%50 == 0 {
				log.Printf("Progress: %d/%d deliveries sent", successCount, *count)
			}
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Seeding complete:")
	log.Printf("  Success: %d deliveries", successCount)
	log.Printf("  Failed: %d deliveries", failCount)
}

func nodeID() string {
	return fmt.Sprintf("PB-%s-%s-%03d",
		strings.ToUpper(gofakeit.LetterN(4)),
		strings.ToUpper(gofakeit.LetterN(4)),
		rand.Intn(1000),
	)
}

func repoName() string {
	if *repo != "" {
		return *repo
	}
	return fmt.Sprintf("%s/%s", gofakeit.Username(), gofakeit.Word())
}

func generatePayload(kind string) map[string]interface{} {
	id := nodeID()
	sha := gofakeit.LetterN(40)
	branch := fmt.Sprintf("feature/%s-%s", id, gofakeit.Word())
	now := time.Now().UTC().Format(time.RFC3339)
	repository := map[string]interface{}{"full_name": repoName()}

	switch kind {
	case "workflow_run":
		names := []string{"unit tests", "integration suite", "e2e pipeline", "lint"}
		return map[string]interface{}{
			"action":     "completed",
			"repository": repository,
			"workflow_run": map[string]interface{}{
				"id":            rand.Int63n(1_000_000_000),
				"name":          names[rand.Intn(len(names))],
				"display_title": fmt.Sprintf("%s %s", id, gofakeit.HackerPhrase()),
				"head_branch":   branch,
				"head_sha":      sha,
				"conclusion":    "success",
				"updated_at":    now,
			},
		}
	case "release":
		return map[string]interface{}{
			"action":     "published",
			"repository": repository,
			"release": map[string]interface{}{
				"id":               rand.Int63n(1_000_000),
				"name":             fmt.Sprintf("%s %s", id, gofakeit.AppVersion()),
				"tag_name":         "v" + gofakeit.AppVersion(),
				"target_commitish": "main",
				"body":             gofakeit.Sentence(8),
				"published_at":     now,
			},
		}
	default: // pull_request
		return map[string]interface{}{
			"action":     "opened",
			"repository": repository,
			"pull_request": map[string]interface{}{
				"number":     rand.Int63n(10_000),
				"title":      fmt.Sprintf("%s %s", id, gofakeit.HackerPhrase()),
				"body":       gofakeit.Sentence(10),
				"updated_at": now,
				"head": map[string]interface{}{
					"ref": branch,
					"sha": sha,
				},
			},
		}
	}
}

func send(client *http.Client, eventName string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, *gatewayURL+"/webhooks/github", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventName)
	req.Header.Set("X-Hub-Signature-256", signature.Compute(*secret, body))

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}
