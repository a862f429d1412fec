// Package gemini implements casegen.Narrator using Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/casegen"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Limits applied to narrated text.
const (
	maxNameLen        = 120
	maxDescriptionLen = 600
)

// Ensure Narrator implements casegen.Narrator at compile time.
var _ casegen.Narrator = (*Narrator)(nil)

// Narrator writes test case names and descriptions with Gemini.
type Narrator struct {
	client *genai.Client
	model  string
}

// NewNarrator creates a new Narrator. An empty model selects DefaultModel.
func NewNarrator(client *genai.Client, model string) *Narrator {
	if model == "" {
		model = DefaultModel
	}
	return &Narrator{client: client, model: model}
}

// Narrate asks the model for a concise name and description of tc.
func (n *Narrator) Narrate(ctx context.Context, tc *casegen.TestCase) (*casegen.Narrative, error) {
	if tc == nil {
		return nil, casegen.Errorf(casegen.EINVALID, "test case required")
	}
	if len(tc.Steps) == 0 {
		return nil, casegen.Errorf(casegen.EINVALID, "test case %q has no steps", tc.Name)
	}

	result, err := n.client.Models.GenerateContent(ctx, n.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(tc)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, casegen.Errorf(casegen.EINTERNAL, "gemini returned nil result")
	}

	return ParseNarrative(result.Text())
}

// BuildConfig returns the GenerateContentConfig for narration calls. The
// response is constrained to a JSON object with name and description.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a QA engineer naming automated end-to-end test cases for a web application. " +
					"Given the steps and assertions of one test case, reply with a short imperative name " +
					"(at most 8 words) and a one or two sentence description of what the test verifies. " +
					"Do not invent behavior that the steps do not show.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":        {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"name", "description"},
		},
	}
}

// BuildUserPrompt describes tc for the model.
func BuildUserPrompt(tc *casegen.TestCase) string {
	var sb strings.Builder
	sb.WriteString("<test_case>\n")
	fmt.Fprintf(&sb, "<current_name>%s</current_name>\n", tc.Name)
	fmt.Fprintf(&sb, "<priority>%s</priority>\n", tc.Priority)
	if len(tc.Tags) > 0 {
		fmt.Fprintf(&sb, "<tags>%s</tags>\n", strings.Join(tc.Tags, ", "))
	}
	if tc.Origin.PageURL != "" {
		fmt.Fprintf(&sb, "<page>%s</page>\n", tc.Origin.PageURL)
	}
	sb.WriteString("<steps>\n")
	for i, s := range tc.Steps {
		fmt.Fprintf(&sb, "%d. %s %s", i+1, s.Action, s.Name)
		if s.Selector != "" {
			fmt.Fprintf(&sb, " selector=%s", s.Selector)
		}
		if s.Value != "" {
			fmt.Fprintf(&sb, " value=%s", s.Value)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("</steps>\n")
	if len(tc.Assertions) > 0 {
		sb.WriteString("<assertions>\n")
		for _, a := range tc.Assertions {
			fmt.Fprintf(&sb, "- %s %s\n", a.Type, a.Value)
		}
		sb.WriteString("</assertions>\n")
	}
	sb.WriteString("</test_case>")
	return sb.String()
}

// ParseNarrative decodes a model reply. Surrounding code fences are
// tolerated; an empty name is an error.
func ParseNarrative(text string) (*casegen.Narrative, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var reply struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		return nil, casegen.Errorf(casegen.EINTERNAL, "decode narration: %v", err)
	}

	name := clip(strings.TrimSpace(reply.Name), maxNameLen)
	if name == "" {
		return nil, casegen.Errorf(casegen.EINTERNAL, "narration has no name")
	}
	return &casegen.Narrative{
		Name:        name,
		Description: clip(strings.TrimSpace(reply.Description), maxDescriptionLen),
	}, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
