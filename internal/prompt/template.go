package prompt

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every {{name}} in tmpl. A placeholder without a value is
// an error rather than being left in the output.
func Render(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	for _, name := range Variables(tmpl) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return vars[m[2:len(m)-2]]
	}), nil
}

// Variables lists placeholder names in order of first appearance.
func Variables(tmpl string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}
