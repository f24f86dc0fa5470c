package export

import (
	"fmt"
	"html"
	"strings"
)

// TipTapToHTML converts a TipTap document tree to HTML.
func TipTapToHTML(doc interface{}) string {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return ""
	}
	return renderNode(root)
}

func renderNode(node map[string]interface{}) string {
	nodeType, _ := node["type"].(string)
	if nodeType == "" {
		return ""
	}

	switch nodeType {
	case "doc":
		return renderContent(node["content"])
	case "paragraph":
		return fmt.Sprintf("<p>%s</p>\n", renderContent(node["content"]))
	case "heading":
		level := 1
		if attrs, ok := node["attrs"].(map[string]interface{}); ok {
			if lvl, ok := attrs["level"].(float64); ok {
				level = int(lvl)
			}
		}
		return fmt.Sprintf("<h%d>%s</h%d>\n", level, renderContent(node["content"]), level)
	case "bulletList":
		return fmt.Sprintf("<ul>\n%s</ul>\n", renderContent(node["content"]))
	case "orderedList":
		return fmt.Sprintf("<ol>\n%s</ol>\n", renderContent(node["content"]))
	case "listItem":
		return fmt.Sprintf("<li>%s</li>\n", renderContent(node["content"]))
	case "blockquote":
		return fmt.Sprintf("<blockquote>\n%s</blockquote>\n", renderContent(node["content"]))
	case "codeBlock":
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", renderContent(node["content"]))
	case "codeBlockLeaf":
		language := ""
		if attrs, ok := node["attrs"].(map[string]interface{}); ok {
			language, _ = attrs["language"].(string)
		}
		class := ""
		if language != "" {
			class = fmt.Sprintf(` class="language-%s"`, html.EscapeString(language))
		}
		return fmt.Sprintf("<pre><code%s>%s</code></pre>\n", class, renderContent(node["content"]))
	case "text":
		text, _ := node["text"].(string)
		marks, _ := node["marks"].([]interface{})
		return renderTextWithMarks(text, marks)
	case "hardBreak":
		return "<br>"
	case "table":
		return fmt.Sprintf("<table>\n%s</table>\n", renderContent(node["content"]))
	case "tableRow":
		return fmt.Sprintf("<tr>\n%s</tr>\n", renderContent(node["content"]))
	case "tableCell":
		return fmt.Sprintf("<td>%s</td>\n", renderContent(node["content"]))
	case "tableHeader":
		return fmt.Sprintf("<th>%s</th>\n", renderContent(node["content"]))
	case "horizontalRule":
		return "<hr>\n"
	default:
		// Unknown node type, render nested content if any
		return renderContent(node["content"])
	}
}

func renderContent(content interface{}) string {
	items, ok := content.([]interface{})
	if !ok {
		return ""
	}

	var result strings.Builder
	for _, item := range items {
		if node, ok := item.(map[string]interface{}); ok {
			result.WriteString(renderNode(node))
		}
	}
	return result.String()
}

func renderTextWithMarks(text string, marks []interface{}) string {
	if text == "" {
		return ""
	}

	htmlText := html.EscapeString(text)

	// Apply marks from outside in
	for i := len(marks) - 1; i >= 0; i-- {
		mark, ok := marks[i].(map[string]interface{})
		if !ok {
			continue
		}
		markType, _ := mark["type"].(string)

		switch markType {
		case "bold":
			htmlText = fmt.Sprintf("<strong>%s</strong>", htmlText)
		case "italic":
			htmlText = fmt.Sprintf("<em>%s</em>", htmlText)
		case "code":
			htmlText = fmt.Sprintf("<code>%s</code>", htmlText)
		case "link":
			href := ""
			if attrs, ok := mark["attrs"].(map[string]interface{}); ok {
				if hrefVal, ok := attrs["href"].(string); ok {
					href = hrefVal
				}
			}
			htmlText = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), htmlText)
		case "strike":
			htmlText = fmt.Sprintf("<s>%s</s>", htmlText)
		case "underline":
			htmlText = fmt.Sprintf("<u>%s</u>", htmlText)
		}
	}

	return htmlText
}
