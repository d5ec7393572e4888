package domain

import (
	"slices"
	"strings"
	"time"
)

// RemovedTitle is the title upstream uses for articles that were taken down.
const RemovedTitle = "[Removed]"

const DefaultCategory = "general"

//nolint:gochecknoglobals // Immutable list of supported categories.
var categories = []string{
	"business",
	"entertainment",
	"general",
	"health",
	"science",
	"sports",
	"technology",
}

type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	SourceName  string    `json:"sourceName"`
	PublishedAt time.Time `json:"publishedAt"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// Displayable reports whether the article can be shown on the dashboard.
func (a Article) Displayable() bool {
	title := strings.TrimSpace(a.Title)

	return title != "" &&
		title != RemovedTitle &&
		strings.TrimSpace(a.Description) != "" &&
		strings.TrimSpace(a.URL) != ""
}

type HeadlineBatch struct {
	Articles   []Article `json:"articles"`
	TotalCount int       `json:"totalCount"`
}

func NewHeadlineBatch(articles []Article) HeadlineBatch {
	return HeadlineBatch{Articles: articles, TotalCount: len(articles)}
}

type SummaryResult struct {
	ArticleIndex int    `json:"articleIndex"`
	Text         string `json:"text"`
	Succeeded    bool   `json:"succeeded"`
}

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseDisplaying Phase = "displaying"
	PhaseError      Phase = "error"
)

// DashboardState is the view of one dashboard session. Summaries holds the
// displayed summary per article index; an empty entry is still pending.
type DashboardState struct {
	Cycle           uint64        `json:"cycle"`
	Category        string        `json:"category"`
	Phase           Phase         `json:"phase"`
	Articles        HeadlineBatch `json:"articles"`
	Summaries       []string      `json:"summaries"`
	SummarizedCount int           `json:"summarizedCount"`
	IsLoading       bool          `json:"isLoading"`
	ErrorMessage    string        `json:"errorMessage,omitempty"`
}

// Clone returns a deep copy safe to hand out of the owning controller.
func (s DashboardState) Clone() DashboardState {
	s.Articles.Articles = slices.Clone(s.Articles.Articles)
	s.Summaries = slices.Clone(s.Summaries)

	return s
}

// Pending returns how many articles still wait for a summary.
func (s DashboardState) Pending() int {
	pending := 0
	for _, summary := range s.Summaries {
		if summary == "" {
			pending++
		}
	}

	return pending
}

func Categories() []string {
	return slices.Clone(categories)
}

func IsCategory(category string) bool {
	return slices.Contains(categories, category)
}

// NormalizeCategory lower-cases the category and substitutes the default for
// an empty value.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultCategory
	}

	return category
}

// Subscription asks for a daily digest of category in a chat.
type Subscription struct {
	ChatID    int64
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
