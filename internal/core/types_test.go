package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPRReferenceKey(t *testing.T) {
	ref := PRReference{Owner: "acme", Repo: "widgets", PullNumber: 42}
	assert.Equal(t, "acme-widgets-42", ref.Key())
	assert.Equal(t, "acme/widgets", ref.FullName())
	assert.Equal(t, "https://github.com/acme/widgets/pull/42", ref.URL())
}

func TestFindingValidate(t *testing.T) {
	valid := Finding{
		ID:         "F1",
		Status:     StatusFail,
		Summary:    "missing error check",
		Confidence: 0.8,
		Evidence:   []Evidence{{FilePath: "internal/api/server.go", StartLine: 10, EndLine: 12}},
	}

	tests := []struct {
		name    string
		mutate  func(f *Finding)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Finding) {}, wantErr: false},
		{name: "boundary confidence zero", mutate: func(f *Finding) { f.Confidence = 0 }, wantErr: false},
		{name: "boundary confidence one", mutate: func(f *Finding) { f.Confidence = 1 }, wantErr: false},
		{name: "missing id", mutate: func(f *Finding) { f.ID = " " }, wantErr: true},
		{name: "missing summary", mutate: func(f *Finding) { f.Summary = "" }, wantErr: true},
		{name: "unknown status", mutate: func(f *Finding) { f.Status = "MAYBE" }, wantErr: true},
		{name: "confidence above one", mutate: func(f *Finding) { f.Confidence = 1.2 }, wantErr: true},
		{name: "negative confidence", mutate: func(f *Finding) { f.Confidence = -0.1 }, wantErr: true},
		{name: "unknown decision", mutate: func(f *Finding) { f.UserDecision = "SNOOZED" }, wantErr: true},
		{name: "absolute evidence path", mutate: func(f *Finding) { f.Evidence[0].FilePath = "/etc/passwd" }, wantErr: true},
		{name: "evidence path escapes repo", mutate: func(f *Finding) { f.Evidence[0].FilePath = "../outside.go" }, wantErr: true},
		{name: "inverted evidence range", mutate: func(f *Finding) { f.Evidence[0].StartLine = 20; f.Evidence[0].EndLine = 10 }, wantErr: true},
		{name: "empty evidence is fine", mutate: func(f *Finding) { f.Evidence = nil }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			f.Evidence = append([]Evidence(nil), valid.Evidence...)
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
