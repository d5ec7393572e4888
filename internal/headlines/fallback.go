package headlines

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"newsdash/internal/domain"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackArticle struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	URL         string        `yaml:"url"`
	Source      string        `yaml:"source"`
	ImageURL    string        `yaml:"image"`
	Age         time.Duration `yaml:"age"`
}

// Fallback holds the bundled sample articles served when the headline
// source is unavailable.
type Fallback struct {
	sets map[string][]fallbackArticle
	now  func() time.Time
}

// LoadFallback parses the bundled sample data.
func LoadFallback() (*Fallback, error) {
	return ParseFallback(fallbackYAML, time.Now)
}

// ParseFallback parses sample data keyed by category. A general set is
// required since it backs every category without its own set.
func ParseFallback(data []byte, now func() time.Time) (*Fallback, error) {
	var sets map[string][]fallbackArticle
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("unmarshal fallback data: %w", err)
	}

	if len(sets[domain.DefaultCategory]) == 0 {
		return nil, errors.New("fallback data has no general set")
	}

	return &Fallback{sets: sets, now: now}, nil
}

// Batch returns the sample batch for category, or the general batch when
// the category has none.
func (f *Fallback) Batch(category string) domain.HeadlineBatch {
	set, ok := f.sets[category]
	if !ok || len(set) == 0 {
		set = f.sets[domain.DefaultCategory]
	}

	now := f.now().UTC()
	articles := make([]domain.Article, 0, len(set))

	for _, a := range set {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source,
			PublishedAt: now.Add(-a.Age),
			ImageURL:    a.ImageURL,
		})
	}

	return domain.NewHeadlineBatch(articles)
}
