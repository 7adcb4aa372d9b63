package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tmpl    string
		vars    map[string]string
		want    string
		wantErr string
	}{
		{name: "substitutes", tmpl: "Hi {{name}}, {{name}}!", vars: map[string]string{"name": "Ada"}, want: "Hi Ada, Ada!"},
		{name: "no placeholders", tmpl: "plain", want: "plain"},
		{name: "empty value allowed", tmpl: "[{{x}}]", vars: map[string]string{"x": ""}, want: "[]"},
		{name: "missing", tmpl: "{{a}} {{b}} {{a}}", vars: map[string]string{}, wantErr: "missing template variables: a, b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Render(tt.tmpl, tt.vars)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestVariablesPreservesFirstAppearance(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"b", "a"}, Variables("{{b}} {{a}} {{b}}"))
	require.Empty(t, Variables("nothing here"))
}

func TestSystemPromptListsCapabilities(t *testing.T) {
	t.Parallel()

	got, err := SystemPrompt("GetHelp", []Capability{
		{Name: "account_info", Description: "Account information retrieval"},
		{Name: "product_info", Description: "Product information and recommendations"},
	})
	require.NoError(t, err)
	require.Contains(t, got, "customer service AI assistant for GetHelp")
	require.Contains(t, got, "1. Account information retrieval\n2. Product information and recommendations")
	require.Contains(t, got, "ask clarifying questions")
	require.NotContains(t, got, "{{")

	_, err = SystemPrompt(" ", nil)
	require.Error(t, err)
}
