package gateway

import (
	"fmt"

	"storefront-chat/internal/llm"
)

// Fallbacks are shown to shoppers instead of upstream errors.
type Fallbacks struct {
	Unauthorized string
	RateLimited  string
	Generic      string
}

func DefaultFallbacks(contact string) Fallbacks {
	if contact == "" {
		contact = "nuestros canales de atención"
	}
	return Fallbacks{
		Unauthorized: fmt.Sprintf("Disculpa, estamos teniendo un inconveniente técnico temporal. 🙏 Escríbenos por %s y te atendemos de inmediato.", contact),
		RateLimited:  fmt.Sprintf("Estoy recibiendo muchas consultas en este momento. ⏳ Intenta de nuevo en unos segundos o escríbenos por %s.", contact),
		Generic:      fmt.Sprintf("Lo siento, no pude procesar tu mensaje. 😔 Intenta nuevamente o contáctanos por %s.", contact),
	}
}

func (f Fallbacks) For(kind llm.ErrorKind) string {
	switch kind {
	case llm.KindUnauthorized:
		return f.Unauthorized
	case llm.KindRateLimited:
		return f.RateLimited
	default:
		return f.Generic
	}
}
