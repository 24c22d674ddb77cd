package qa

import (
	"fmt"
	"strings"
)

// contextSeparator joins retrieved report blocks inside the system prompt.
const contextSeparator = "\n\n---\n\n"

const answerSystemPromptTemplate = `You are a medical AI assistant answering questions about medical reports.
Use the following medical report contexts to answer the question.
If the answer cannot be found in the contexts, say so and suggest what other information might be needed.

Contexts:
%s`

// buildAnswerSystemPrompt renders the system instruction for a QA turn from
// the retrieved context blocks.
func buildAnswerSystemPrompt(contexts []string) string {
	return fmt.Sprintf(answerSystemPromptTemplate, strings.Join(contexts, contextSeparator))
}
