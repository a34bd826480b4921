// Package llm provides the language-model capability consumed by the chat engine.
package llm

import "context"

// Generator produces a model reply for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Reply, error)
	Close() error
}

// EmptyResponseText is returned by Reply.Text when no shape carries any text.
const EmptyResponseText = "⚠️ No response received."

// ReplyShape tags the wire shape a provider answered with.
type ReplyShape int

const (
	// ShapePlain is a bare text response.
	ShapePlain ReplyShape = iota
	// ShapeWrapped is a single object carrying a text field.
	ShapeWrapped
	// ShapeParts is a sequence of typed parts, at most one of them textual.
	ShapeParts
)

// ReplyPart is one element of a parts-shaped response.
type ReplyPart struct {
	Kind string
	Text string
}

// Reply is a tagged union over the response shapes providers answer with.
// Construct with Plain, Wrapped, or Parts; extract with Text.
type Reply struct {
	Shape ReplyShape
	Value string
	Parts []ReplyPart
}

// Plain wraps a bare text response.
func Plain(text string) *Reply {
	return &Reply{Shape: ShapePlain, Value: text}
}

// Wrapped wraps a response object's text field.
func Wrapped(text string) *Reply {
	return &Reply{Shape: ShapeWrapped, Value: text}
}

// PartsReply wraps a typed-parts response.
func PartsReply(parts []ReplyPart) *Reply {
	return &Reply{Shape: ShapeParts, Parts: parts}
}

// Text extracts plain text from the reply. It is total: every shape yields a
// string, and a reply with no textual content yields EmptyResponseText.
func (r *Reply) Text() string {
	if r == nil {
		return EmptyResponseText
	}
	switch r.Shape {
	case ShapePlain, ShapeWrapped:
		if r.Value != "" {
			return r.Value
		}
	case ShapeParts:
		for _, part := range r.Parts {
			if part.Kind == "text" && part.Text != "" {
				return part.Text
			}
		}
	}
	return EmptyResponseText
}
