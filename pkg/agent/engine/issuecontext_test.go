package engine

import (
	"testing"

	"issue-agent-be/pkg/agent/state"
)

func TestParseIssueContext(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		existing map[string]string
		want     map[string]string
	}{
		{
			name:  "no markers",
			input: "just some free text",
			want:  map[string]string{},
		},
		{
			name:  "description only",
			input: "ISSUE_DESCRIPTION: fix bug",
			want:  map[string]string{"description": "fix bug"},
		},
		{
			name:  "description and comments",
			input: "ISSUE_DESCRIPTION: fix bug\nISSUE_COMMENTS:\nkey: val",
			want:  map[string]string{"description": "fix bug", "key": "val"},
		},
		{
			name:  "multiline description stops at comments",
			input: "ISSUE_DESCRIPTION: fix the\nlogin bug\nISSUE_COMMENTS:\nassignee: dana",
			want:  map[string]string{"description": "fix the\nlogin bug", "assignee": "dana"},
		},
		{
			name:  "comment value keeps colons after the first",
			input: "ISSUE_COMMENTS:\nrepo: github.com/org/repo: main branch",
			want:  map[string]string{"repo": "github.com/org/repo: main branch"},
		},
		{
			name:  "comment lines without a colon are skipped",
			input: "ISSUE_COMMENTS:\nno colon here\nkey: val",
			want:  map[string]string{"key": "val"},
		},
		{
			name:  "required params seed sentinel",
			input: "REQUIRED_PARAMS: github_repo,city",
			want: map[string]string{
				"github_repo": state.NeedsElicitation,
				"city":        state.NeedsElicitation,
			},
		},
		{
			name:     "required params respect existing context",
			input:    "REQUIRED_PARAMS: github_repo,city",
			existing: map[string]string{"github_repo": "org/repo"},
			want:     map[string]string{"city": state.NeedsElicitation},
		},
		{
			name:  "required params respect values extracted this call",
			input: "ISSUE_COMMENTS:\ncity: Berlin\nREQUIRED_PARAMS: city,zip",
			want:  map[string]string{"city": "Berlin", "zip": state.NeedsElicitation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIssueContext(tt.input, tt.existing)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseIssueContext = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("context[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
