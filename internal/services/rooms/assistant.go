package rooms

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
)

const (
	assistantTemperature = 0.2
	assistantMaxTokens   = 300
)

const assistantSystemPromptTemplate = `You are Dr. AI Assistant, a medical specialist analyzing a medical image.
The image is from a case described as: "%s".
%s
Please provide an expert, accurate, and helpful response to the doctor's question.
Base your response on the findings and your medical expertise.
Respond as if you are speaking directly to the doctor in a collaborative setting.
Keep your response concise but informative, focusing on the relevant medical details.`

// Assistant generates the automated clinician replies posted in case rooms.
// Like the QA session it never fails the caller; problems become reply text.
type Assistant struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewAssistant creates a case-room assistant.
func NewAssistant(llm interfaces.LLMService, logger arbor.ILogger) *Assistant {
	return &Assistant{
		llm:    llm,
		logger: logger,
	}
}

// Respond answers a doctor's question in the context of a case. The reply is
// grounded in the case description and the numbered findings list.
func (a *Assistant) Respond(ctx context.Context, question, caseDescription string, findings []string) string {
	if !a.llm.Configured() {
		return "Please configure an API key to get AI responses."
	}

	var findingsText string
	if len(findings) > 0 {
		var sb strings.Builder
		sb.WriteString("The key findings in the image are:\n")
		for i, finding := range findings {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, finding))
		}
		findingsText = sb.String()
	}

	messages := []interfaces.Message{
		{Role: "system", Content: fmt.Sprintf(assistantSystemPromptTemplate, caseDescription, findingsText)},
		{Role: "user", Content: question},
	}

	reply, err := a.llm.ChatWithOptions(ctx, messages, interfaces.ChatOptions{
		Temperature: assistantTemperature,
		MaxTokens:   assistantMaxTokens,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("Case assistant completion failed")
		return fmt.Sprintf("I apologize, but I encountered an error while analyzing your question. Please try again or rephrase your question. Error details: %s", err.Error())
	}

	return reply
}
