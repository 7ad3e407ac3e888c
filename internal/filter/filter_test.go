package filter

import (
	"testing"

	"github.com/amishk599/gigfinder/internal/model"
)

func job(platform model.Platform, title, description string) model.Job {
	return model.Job{Platform: platform, Title: title, Description: description}
}

func TestKeywordFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		keywords  []string
		platform  model.Platform
		job       model.Job
		wantMatch bool
	}{
		{
			name:      "substring inside title",
			keywords:  []string{"paint"},
			job:       job(model.PlatformFreelancer, "Painter Needed", ""),
			wantMatch: true,
		},
		{
			name:      "match in description only",
			keywords:  []string{"golang"},
			job:       job(model.PlatformRemoteOK, "Backend Engineer", "We use Golang and Postgres"),
			wantMatch: true,
		},
		{
			name:      "any keyword is enough",
			keywords:  []string{"rust", "logo"},
			job:       job(model.PlatformFreelancer, "Design a LOGO", ""),
			wantMatch: true,
		},
		{
			name:      "no keyword matches",
			keywords:  []string{"devops", "sre"},
			job:       job(model.PlatformFreelancer, "Frontend Engineer", "React work"),
			wantMatch: false,
		},
		{
			name:      "empty keyword list passes all",
			keywords:  nil,
			job:       job(model.PlatformUpwork, "Any Role", ""),
			wantMatch: true,
		},
		{
			name:      "platform mismatch rejects",
			keywords:  []string{"paint"},
			platform:  model.PlatformRemoteOK,
			job:       job(model.PlatformFreelancer, "Painter Needed", ""),
			wantMatch: false,
		},
		{
			name:      "platform match without keywords",
			platform:  model.PlatformFreelancer,
			job:       job(model.PlatformFreelancer, "Anything", ""),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewKeywordFilter(tt.keywords, tt.platform)
			got := f.Match(tt.job)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}
