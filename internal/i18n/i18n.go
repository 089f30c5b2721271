// Package i18n translates user-facing API messages.
package i18n

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLocale is the default language locale (English).
	DefaultLocale = "en"
	// AcceptLanguageHeader is the HTTP header name for language preference.
	AcceptLanguageHeader = "Accept-Language"
)

var (
	shared     *Translator
	sharedOnce sync.Once
)

// Translator maps message keys to per-locale text.
type Translator struct {
	messages map[string]map[string]string
}

// NewTranslator creates a translator loaded with the built-in catalogs.
func NewTranslator() *Translator {
	return &Translator{messages: getDefaultMessages()}
}

// GetTranslator returns the process-wide translator.
func GetTranslator() *Translator {
	sharedOnce.Do(func() { shared = NewTranslator() })
	return shared
}

// Supports reports whether a catalog exists for locale.
func (t *Translator) Supports(locale string) bool {
	_, ok := t.messages[locale]
	return ok
}

// Translate returns the message for key in locale. Unknown locales and
// missing keys fall back to DefaultLocale, then to the key itself.
func (t *Translator) Translate(key, locale string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// T translates key into the locale the request prefers.
func T(c *gin.Context, key string) string {
	return GetTranslator().Translate(key, GetLocale(c))
}

// GetLocale picks the first supported base language from Accept-Language,
// e.g. "fr-FR,pt-BR;q=0.8" yields "pt". Quality weights are not re-sorted.
func GetLocale(c *gin.Context) string {
	header := c.GetHeader(AcceptLanguageHeader)
	if header == "" {
		return DefaultLocale
	}

	translator := GetTranslator()
	for _, pref := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(pref), ";")
		base, _, _ := strings.Cut(tag, "-")
		base = strings.ToLower(strings.TrimSpace(base))
		if translator.Supports(base) {
			return base
		}
	}
	return DefaultLocale
}

// getDefaultMessages returns the default message translations.
func getDefaultMessages() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			ErrKeyInvalidRequest:     "Invalid request",
			ErrKeyInvalidRequestBody: "Invalid request body",
			ErrKeyInvalidID:          "Invalid identifier",
			ErrKeyInternalError:      "An unexpected error occurred",
			ErrKeyUnauthorized:       "Unauthorized",
			ErrKeyAPIKeyRequired:     "API key is required",
			ErrKeyInvalidAPIKey:      "Invalid API key",
			ErrKeyForbidden:          "Forbidden",
			ErrKeyNotFound:           "Not found",
			ErrKeyRateLimitExceeded:  "Too many requests, please try again later",
			ErrKeyConflict:           "A resource with the same identity already exists",
			ErrKeyInvalidToken:       "Invalid or expired token",
			ErrKeyTokenRequired:      "Authentication token is required",
			ErrKeyTimeout:            "Request timeout",
			ErrKeyUnavailable:        "The catalog store is temporarily unavailable",
			ErrKeyInvalidTransition:  "Hackathon status can only move forward",
			ErrKeyRegistrationClosed: "This hackathon no longer accepts teams",
			ErrKeyUnknownCacheRoute:  "Unknown cache route",
			ErrKeyInvalidPattern:     "Invalid invalidation pattern",
			SuccessKeyCacheCleared:   "Cache cleared",
		},
		"pt": {
			ErrKeyInvalidRequest:     "Requisição inválida",
			ErrKeyInvalidRequestBody: "Corpo da requisição inválido",
			ErrKeyInvalidID:          "Identificador inválido",
			ErrKeyInternalError:      "Ocorreu um erro inesperado",
			ErrKeyUnauthorized:       "Não autorizado",
			ErrKeyAPIKeyRequired:     "Chave de API é obrigatória",
			ErrKeyInvalidAPIKey:      "Chave de API inválida",
			ErrKeyForbidden:          "Proibido",
			ErrKeyNotFound:           "Não encontrado",
			ErrKeyRateLimitExceeded:  "Muitas requisições, tente novamente mais tarde",
			ErrKeyConflict:           "Já existe um recurso com a mesma identidade",
			ErrKeyInvalidToken:       "Token inválido ou expirado",
			ErrKeyTokenRequired:      "Token de autenticação é obrigatório",
			ErrKeyTimeout:            "Tempo limite da requisição excedido",
			ErrKeyUnavailable:        "O catálogo está temporariamente indisponível",
			ErrKeyInvalidTransition:  "O status do hackathon só pode avançar",
			ErrKeyRegistrationClosed: "Este hackathon não aceita mais equipes",
			ErrKeyUnknownCacheRoute:  "Rota de cache desconhecida",
			ErrKeyInvalidPattern:     "Padrão de invalidação inválido",
			SuccessKeyCacheCleared:   "Cache limpo",
		},
	}
}
