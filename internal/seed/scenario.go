// Package seed loads demo and test data into the database, either from a YAML
// scenario file or from generated fake accounts and posts.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"chirp/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a complete data set: accounts with their circles and follows,
// then posts in creation order.
type Scenario struct {
	Users []UserSpec `yaml:"users"`
	Posts []PostSpec `yaml:"posts"`
}

// UserSpec describes one account. Circle and Follows name other users by handle.
type UserSpec struct {
	Handle   string   `yaml:"handle"`
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Avatar   string   `yaml:"avatar"`
	Verify   string   `yaml:"verify"`
	Circle   []string `yaml:"circle"`
	Follows  []string `yaml:"follows"`
}

// PostSpec describes one post. Parent names an earlier post by key.
type PostSpec struct {
	Key       string      `yaml:"key"`
	Author    string      `yaml:"author"`
	Body      string      `yaml:"body"`
	Audience  string      `yaml:"audience"`
	Kind      string      `yaml:"kind"`
	Parent    string      `yaml:"parent"`
	Hashtags  []string    `yaml:"hashtags"`
	Mentions  []string    `yaml:"mentions"`
	Media     []MediaSpec `yaml:"media"`
	Likes     []string    `yaml:"likes"`
	Bookmarks []string    `yaml:"bookmarks"`
}

type MediaSpec struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"`
}

// LoadScenario decodes a YAML scenario. Unknown fields are rejected.
func LoadScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if err == io.EOF {
			return &sc, nil
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenarioFile reads a scenario from path.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScenario(f)
}

func parseVerify(s string) (models.VerifyStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "verified":
		return models.VerifyVerified, nil
	case "unverified":
		return models.VerifyUnverified, nil
	case "banned":
		return models.VerifyBanned, nil
	default:
		return 0, fmt.Errorf("unknown verify status %q", s)
	}
}

func parseAudience(s string) models.Audience {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "everyone":
		return models.AudienceEveryone
	case "circle", "author_circle":
		return models.AudienceAuthorCircle
	default:
		return models.Audience(strings.ToUpper(s))
	}
}

func parseKind(s string) models.PostKind {
	if strings.TrimSpace(s) == "" {
		return models.PostKindOriginal
	}
	return models.PostKind(strings.ToUpper(strings.TrimSpace(s)))
}
