// Package chat answers student questions with retrieval-augmented generation.
package chat

import "strings"

// IdentityReply is the fixed response to identity-probing questions.
const IdentityReply = "I am Counsellor AI, created to support and guide you. I am not Google, Gemini, or OpenAI — I am your personal counsellor 🤝."

// identityPhrases is the deny-list of identity-probing patterns. A hit
// bypasses retrieval and the language model entirely.
var identityPhrases = []string{
	"hey chatgpt",
	"are you",
	"are you google",
	"are you gemini",
	"are you openai",
	"which llm",
	"what model",
	"are you chatgpt",
	"are you grok",
	"who made you", "who created you", "your developer",
	"your creator",
	"your name",
	"identify yourself",
	"who are you",
	"what are you",
	"your purpose", "are you a counsellor",
}

// InterceptIdentity reports whether the question probes the assistant's
// identity, returning the canned reply when it does. This runs before any
// external call.
func InterceptIdentity(question string) (string, bool) {
	lowered := strings.ToLower(question)
	for _, phrase := range identityPhrases {
		if strings.Contains(lowered, phrase) {
			return IdentityReply, true
		}
	}
	return "", false
}
