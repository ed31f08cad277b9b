package prompt

import (
	"strings"

	"storefront-chat/internal/llm"
)

type CartItem struct {
	Name string `json:"name"`
	Size string `json:"size,omitempty"`
}

// PageContext describes where the shopper is while chatting.
type PageContext struct {
	CurrentPage string
	CartItems   []CartItem
}

func (pc PageContext) empty() bool {
	return strings.TrimSpace(pc.CurrentPage) == "" && len(pc.CartItems) == 0
}

// Annotate appends bracketed page and cart notes to the newest user message.
// The message is edited in place; nothing is added to the list.
func Annotate(messages []llm.Message, pc PageContext) {
	if pc.empty() {
		return
	}
	idx := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(messages[idx].Content)
	if page := strings.TrimSpace(pc.CurrentPage); page != "" {
		sb.WriteString("\n\n[Página actual: ")
		sb.WriteString(page)
		sb.WriteString("]")
	}
	if len(pc.CartItems) > 0 {
		items := make([]string, 0, len(pc.CartItems))
		for _, it := range pc.CartItems {
			if it.Size != "" {
				items = append(items, it.Name+" (talla "+it.Size+")")
			} else {
				items = append(items, it.Name)
			}
		}
		sb.WriteString("\n[Carrito: ")
		sb.WriteString(strings.Join(items, ", "))
		sb.WriteString("]")
	}
	messages[idx].Content = sb.String()
}
