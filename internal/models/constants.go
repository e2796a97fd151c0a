package models

const (
	// ContextSeparator keeps passage boundaries visible to the model.
	ContextSeparator = "\n---\n"

	ThinkTag = `(?s)<think>.*?</think>`
)

var (
	// AnswerPromptTemplate is the default instruction template. Both
	// slots are required; custom templates are validated against them.
	AnswerPromptTemplate = `You are a helpful assistant. Answer the question using only the provided context. If the context does not contain the answer, say so.

Context:
{{.context}}

Question: {{.question}}
Answer:`

	// SituatePromptTemplate asks the chat model to situate a passage
	// within the whole document before it is embedded.
	SituatePromptTemplate = `<document>
%s
</document>
Here is the chunk we want to situate within the whole document
<chunk>
%s
</chunk>
Please give a short succinct context to situate this chunk within the overall document for the purposes of improving search retrieval of the chunk. Answer only with the succinct context and nothing else.
`
)
