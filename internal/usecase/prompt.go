package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"policychat/internal/domain/entity"
)

const promptInstructions = `You are an intelligent assistant specialized in answering questions about company documents.
Follow these guidelines when responding:
1. Answer based ONLY on the context provided. If the context doesn't contain the answer, say "I don't have enough information to answer that question."
2. Be concise and direct, but provide complete answers.
3. For complex information, structure your answer with bullet points or numbered lists when appropriate.
4. When quoting directly from a document, use quotation marks.
5. If the question is outside the documents' scope, politely redirect to topics covered in the documents.
6. Maintain a helpful, professional tone.`

// BuildPrompt assembles the generation prompt from the question and the
// retrieved context. Deterministic and stateless: the same inputs
// always produce the same string.
func BuildPrompt(question string, chunks []entity.RetrievedChunk) string {
	var sb strings.Builder
	sb.WriteString(promptInstructions)
	sb.WriteString("\n\nCONTEXT:\n")
	for i, ch := range chunks {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		page := "Unknown page"
		if ch.Page != entity.PageUnknown {
			page = strconv.Itoa(ch.Page)
		}
		fmt.Fprintf(&sb, "[From: %s, Page: %s]\n%s", ch.SourceID, page, ch.Text)
	}
	sb.WriteString("\n\nQUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nYOUR ANSWER:")
	return sb.String()
}
