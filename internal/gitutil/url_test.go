package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePullRequestURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantNum   int
		wantErr   bool
	}{
		{
			name:      "canonical URL",
			input:     "https://github.com/acme/widgets/pull/42",
			wantOwner: "acme",
			wantRepo:  "widgets",
			wantNum:   42,
		},
		{
			name:      "trailing slash",
			input:     "https://github.com/acme/widgets/pull/42/",
			wantOwner: "acme",
			wantRepo:  "widgets",
			wantNum:   42,
		},
		{
			name:      "dotted repo name",
			input:     "https://github.com/sevigo/pr-warden.js/pull/7",
			wantOwner: "sevigo",
			wantRepo:  "pr-warden.js",
			wantNum:   7,
		},
		{name: "missing pull segment", input: "https://github.com/acme/widgets/issues/42", wantErr: true},
		{name: "non-numeric id", input: "https://github.com/acme/widgets/pull/abc", wantErr: true},
		{name: "malformed host", input: "https://gitlab.com/acme/widgets/pull/42", wantErr: true},
		{name: "not a url at all", input: "acme widgets 42", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParsePullRequestURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, ref.Owner)
			assert.Equal(t, tt.wantRepo, ref.Repo)
			assert.Equal(t, tt.wantNum, ref.PullNumber)
			assert.NotEmpty(t, ref.CloneURL)
		})
	}
}
