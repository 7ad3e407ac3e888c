package filter

import (
	"strings"

	"github.com/amishk599/gigfinder/internal/model"
)

var _ model.JobFilter = (*KeywordFilter)(nil)

// KeywordFilter matches jobs whose title or description contains any of the
// keywords. Matching is case-insensitive. An empty keyword list matches all.
type KeywordFilter struct {
	keywords []string
	platform model.Platform
}

// NewKeywordFilter returns a filter over the given keywords. A non-empty
// platform additionally restricts matches to that platform.
func NewKeywordFilter(keywords []string, platform model.Platform) *KeywordFilter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(kw); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &KeywordFilter{keywords: lowered, platform: platform}
}

// Match returns true if any keyword is a substring of the job's title or
// description (OR across keywords and fields).
func (f *KeywordFilter) Match(job model.Job) bool {
	if f.platform != "" && job.Platform != f.platform {
		return false
	}
	if len(f.keywords) == 0 {
		return true
	}

	titleLower := strings.ToLower(job.Title)
	descLower := strings.ToLower(job.Description)
	for _, kw := range f.keywords {
		if strings.Contains(titleLower, kw) || strings.Contains(descLower, kw) {
			return true
		}
	}
	return false
}
