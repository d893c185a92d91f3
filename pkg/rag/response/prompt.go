package response

import (
	"fmt"
	"strings"

	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
)

// PromptComposer builds the grounding-constrained synthesis prompt.
type PromptComposer struct{}

func (c *PromptComposer) Compose(query string, gctx assembler.GroundedContext, history []llm.Message) string {
	var prompt strings.Builder
	c.writeSystemRole(&prompt)
	c.writeGroundingRules(&prompt)
	c.writeContext(&prompt, gctx)
	c.writeHistory(&prompt, history)
	c.writeQuestion(&prompt, query)
	return prompt.String()
}

func (c *PromptComposer) writeSystemRole(prompt *strings.Builder) {
	prompt.WriteString("<system_role>\n")
	prompt.WriteString("You are a document question-answering assistant.\n")
	prompt.WriteString("You answer strictly from the supplied document excerpts.\n")
	prompt.WriteString("</system_role>\n\n")
}

func (c *PromptComposer) writeGroundingRules(prompt *strings.Builder) {
	prompt.WriteString("<rules>\n")
	prompt.WriteString("1. Use ONLY information present in the <context> excerpts below.\n")
	prompt.WriteString("2. After every factual statement, cite its source excerpt as [label], e.g. [" + exampleLabel + "].\n")
	prompt.WriteString("3. If the context does not contain the answer, say you don't have enough information. Do NOT guess.\n")
	prompt.WriteString("4. Never invent citation labels that are not listed in the context.\n")
	prompt.WriteString("</rules>\n\n")
}

func (c *PromptComposer) writeContext(prompt *strings.Builder, gctx assembler.GroundedContext) {
	prompt.WriteString("<context>\n")
	for _, e := range gctx.Entries {
		prompt.WriteString(fmt.Sprintf("<excerpt label=%q modality=%q page=\"%d\">\n", e.Label, e.Chunk.Modality, e.Chunk.Page))
		prompt.WriteString(e.Chunk.Text)
		prompt.WriteString("\n</excerpt>\n")
	}
	prompt.WriteString("</context>\n\n")
}

func (c *PromptComposer) writeHistory(prompt *strings.Builder, history []llm.Message) {
	if len(history) == 0 {
		return
	}
	prompt.WriteString("<conversation_history>\n")
	for _, m := range history {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", m.Role, m.Content))
	}
	prompt.WriteString("</conversation_history>\n\n")
}

func (c *PromptComposer) writeQuestion(prompt *strings.Builder, query string) {
	prompt.WriteString("<question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</question>\n")
}

const exampleLabel = "d0c#0"
