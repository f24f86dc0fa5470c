// Package doctree normalizes and patches TipTap-style document trees.
//
// Editors persist documents as a single nested JSON object. Nodes that may
// carry children often arrive without a "content" member at all (an empty
// paragraph is stored as {"type":"paragraph"}), which breaks positional
// JSON Patch paths like /content/12/content/0/text. Normalize rewrites a
// tree so every container node has a materialized content array before a
// patch is applied.
package doctree

// Node types whose schema expects a content array.
var containerTypes = map[string]bool{
	"doc":           true,
	"paragraph":     true,
	"heading":       true,
	"bulletList":    true,
	"orderedList":   true,
	"listItem":      true,
	"blockquote":    true,
	"codeBlock":     true,
	"codeBlockLeaf": true,
}

// Inline-capable containers get one empty text leaf instead of [] so that
// paths addressing their first child (e.g. /content/0/text) stay valid.
var inlineCapableTypes = map[string]bool{
	"paragraph": true,
	"heading":   true,
}

func defaultInlineContent() []any {
	return []any{map[string]any{"type": "text", "text": ""}}
}

// Normalize returns a deep copy of doc in which every container-typed node
// has a content array. Existing content is never removed or reordered; the
// input is never mutated. Normalize is idempotent.
//
// Recursion descends into any content array regardless of whether the
// parent's own type is recognized, so children of unknown node types are
// still normalized. Non-object values pass through unchanged.
func Normalize(doc any) any {
	node, ok := doc.(map[string]any)
	if !ok {
		return Clone(doc)
	}

	out := make(map[string]any, len(node)+1)
	for key, value := range node {
		out[key] = Clone(value)
	}

	nodeType, _ := out["type"].(string)
	if containerTypes[nodeType] {
		if _, exists := out["content"]; !exists {
			if inlineCapableTypes[nodeType] {
				out["content"] = defaultInlineContent()
			} else {
				out["content"] = []any{}
			}
		}
	}

	if children, ok := out["content"].([]any); ok {
		normalized := make([]any, len(children))
		for i, child := range children {
			normalized[i] = Normalize(child)
		}
		out["content"] = normalized
	}

	return out
}

// Clone deep-copies a JSON-shaped value (maps, slices, scalars).
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}
