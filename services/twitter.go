package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/KrampusTON/indyback/utils"
)

// TwitterService verifies social-proof tweet URLs against the Twitter
// API. Implements ProofVerifier. A tweet qualifies when its text
// mentions both the token and the project site.
type TwitterService struct {
	BaseURL     string
	BearerToken string
	Client      *http.Client

	RequiredMentions []string
}

func NewTwitterService() *TwitterService {
	return &TwitterService{
		BaseURL:          envOr("TWITTER_API_URL", "https://api.twitter.com"),
		BearerToken:      os.Getenv("TWITTER_BEARER_TOKEN"),
		RequiredMentions: []string{"INDY", "indianadog.app"},
		Client:           utils.HTTPClient,
	}
}

// tweetIDFromURL pulls the trailing path segment out of a tweet link.
func tweetIDFromURL(proofURL string) (string, error) {
	u, err := url.Parse(proofURL)
	if err != nil {
		return "", ErrInvalidProof
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := parts[len(parts)-1]
	if id == "" {
		return "", ErrInvalidProof
	}
	return id, nil
}

// VerifyProof looks the tweet up and checks its text. Returns false
// for a missing or non-qualifying tweet; transport and auth failures
// come back as errors, never as a pass.
func (s *TwitterService) VerifyProof(ctx context.Context, proofURL string) (bool, error) {
	tweetID, err := tweetIDFromURL(proofURL)
	if err != nil {
		return false, err
	}

	reqURL := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=text,author_id", s.BaseURL, tweetID)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+s.BearerToken)

	resp, err := s.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("tweet lookup returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode tweet: %w", err)
	}

	for _, mention := range s.RequiredMentions {
		if !strings.Contains(out.Data.Text, mention) {
			return false, nil
		}
	}
	return true, nil
}
