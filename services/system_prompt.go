package services

import (
	"fmt"
	"strings"

	"docchat/models"
)

// systemPrompt constrains the model to the retrieved context only.
const systemPrompt = "You are a helpful assistant that answers questions based only on provided context."

// answerPromptTemplate is the fixed instruction template the retrieved
// context and the question are injected into.
const answerPromptTemplate = `You are a helpful assistant that answers questions based ONLY on the provided context documents.

Instructions:
1. Use ONLY the information from the provided context to answer questions
2. If the context doesn't contain enough information to answer the question, respond with "I do not know"
3. Do not use your general knowledge - stick strictly to the provided context
4. Be concise and accurate in your responses
5. If you reference specific information, mention which document it came from

Context Documents:
%s

Question: %s

Answer:`

// BuildAnswerPrompt assembles the context block from the sources and injects
// it into the instruction template together with the question.
func BuildAnswerPrompt(question string, sources []models.Source) string {
	blocks := make([]string, 0, len(sources))
	for _, src := range sources {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s", src.Filename, src.Content))
	}
	context := strings.Join(blocks, "\n\n")
	return fmt.Sprintf(answerPromptTemplate, context, question)
}
