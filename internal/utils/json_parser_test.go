package utils

import (
	"testing"
)

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"task": "query", "count": 3}`,
			want: map[string]interface{}{
				"task":  "query",
				"count": float64(3),
			},
			wantErr: false,
		},
		{
			name: "JSON in markdown code block",
			input: "```json\n" +
				`{"task": "general_qa", "count": 1}` + "\n```",
			want: map[string]interface{}{
				"task":  "general_qa",
				"count": float64(1),
			},
			wantErr: false,
		},
		{
			name: "JSON in bare code block",
			input: "```\n" +
				`{"task": "refusal"}` + "\n```",
			want: map[string]interface{}{
				"task": "refusal",
			},
			wantErr: false,
		},
		{
			name:  "JSON with surrounding text",
			input: `Here is the extracted intent: {"task": "query", "count": 5} as requested.`,
			want: map[string]interface{}{
				"task":  "query",
				"count": float64(5),
			},
			wantErr: false,
		},
		{
			name:  "JSON with trailing comma",
			input: `{"task": "query", "count": 2,}`,
			want: map[string]interface{}{
				"task":  "query",
				"count": float64(2),
			},
			wantErr: false,
		},
		{
			name:  "JSON with unquoted keys",
			input: `{task: "query", count: 4}`,
			want: map[string]interface{}{
				"task":  "query",
				"count": float64(4),
			},
			wantErr: false,
		},
		{
			name:  "Nested braces inside strings",
			input: `The model said {"note": "use {curly} braces", "ok": true} there.`,
			want: map[string]interface{}{
				"note": "use {curly} braces",
				"ok":   true,
			},
			wantErr: false,
		},
		{
			name:    "Empty string",
			input:   "",
			want:    nil,
			wantErr: true,
		},
		{
			name:    "Invalid JSON",
			input:   "not json at all",
			want:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseAIJSON(tt.input, &got)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAIJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("ParseAIJSON() got[%q] = %v, want %v", key, got[key], want)
				}
			}
		})
	}
}

func TestParseAIJSON_IntoStruct(t *testing.T) {
	var target struct {
		Task        string `json:"task"`
		Constraints []struct {
			Column   string `json:"column"`
			Operator string `json:"operator"`
		} `json:"constraints"`
	}

	input := "```json\n" + `{
		"task": "query",
		"constraints": [
			{"column": "Company Name", "operator": "=="}
		]
	}` + "\n```"

	if err := ParseAIJSON(input, &target); err != nil {
		t.Fatalf("ParseAIJSON() error = %v", err)
	}
	if target.Task != "query" {
		t.Errorf("Task = %q, want %q", target.Task, "query")
	}
	if len(target.Constraints) != 1 || target.Constraints[0].Column != "Company Name" {
		t.Errorf("Constraints = %+v, want one Company Name constraint", target.Constraints)
	}
}
