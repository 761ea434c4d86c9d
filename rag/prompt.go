package rag

import (
	"fmt"
	"strings"

	"github.com/eduassistant/go-agent/vectorstore"
)

const systemInstruction = `Ты — опытный русскоязычный образовательный ассистент. Отвечай ТОЛЬКО на русском языке.

ПРАВИЛА:
1. Используй ТОЛЬКО информацию из контекста
2. Если информации нет — честно скажи об этом
3. Не выдумывай факты
4. Будь дружелюбным и полезным
5. Отвечай кратко и по делу, используй списки для структуры`

const noContextPlaceholder = "Контекст не найден."

// BuildPrompt composes the two-part generation request: a fixed grounding
// instruction and a user message interleaving each passage's source tag with
// its text in retrieval rank order, ending with the question. Deterministic
// given its inputs; touches nothing external.
func BuildPrompt(question string, passages []vectorstore.Result) (systemMsg, userMsg string) {
	contextParts := make([]string, 0, len(passages))
	for _, passage := range passages {
		source := passage.Metadata.Source
		if source == "" {
			source = "unknown"
		}
		contextParts = append(contextParts, fmt.Sprintf("[%s] %s", source, passage.Text))
	}

	contextBlock := strings.Join(contextParts, "\n\n")
	if contextBlock == "" {
		contextBlock = noContextPlaceholder
	}

	userMsg = fmt.Sprintf("Запрос пользователя: %s\n\nКонтекст из базы знаний:\n%s", question, contextBlock)
	return systemInstruction, userMsg
}
