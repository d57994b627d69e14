package advisor

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/presentation"
)

// systemPrompt sets the persona for every advice request.
const systemPrompt = "You are a senior Instagram analyst. You give honest, concise, actionable advice " +
	"grounded only in the data you are given."

var promptTemplate = template.Must(template.New("advice").Parse(`I have run a predictive model on a planned post. Here is the data:

- **Category:** {{.Category}}
- **Format:** {{.Format}}
- **Source:** {{.Source}}
- **Predicted Engagement Rate:** {{.Rate}}

Based ONLY on this data, provide a strategy report:
1. **Verdict:** Is {{.Rate}} a good score for the {{.Category}} niche? (Be honest).
2. **Timing:** What is the specific best time to post {{.Category}} content to maximize this?
3. **Action Plan:** Give 2 specific ways to increase engagement for a {{.Format}} beyond {{.Rate}}.

Keep it professional, concise, and actionable.
`))

type promptData struct {
	Category string
	Format   string
	Source   string
	Rate     string
}

// BuildPrompt renders the strategy request for a prediction.
func BuildPrompt(p domain.Prediction) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, promptData{
		Category: p.Input.ContentCategory,
		Format:   p.Input.MediaType,
		Source:   p.Input.TrafficSource,
		Rate:     presentation.Percent(p.Score),
	})
	if err != nil {
		return "", fmt.Errorf("render advice prompt: %w", err)
	}
	return buf.String(), nil
}
