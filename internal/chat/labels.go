package chat

import (
	"sort"

	"github.com/diogo/ragchat/internal/models"
)

// Labels are the localized strings shown next to messages
type Labels struct {
	User      string
	Assistant string
	// Error marks server-reported errors inside an answer.
	Error string
}

var builtinLabels = map[string]Labels{
	"en": {User: "You", Assistant: "Assistant", Error: "error"},
	"fa": {User: "شما", Assistant: "دستیار", Error: "خطا"},
}

// DefaultLocale is used when no locale is configured
const DefaultLocale = "en"

// LabelsFor returns the labels of locale, falling back to English
func LabelsFor(locale string) Labels {
	if l, ok := builtinLabels[locale]; ok {
		return l
	}
	return builtinLabels[DefaultLocale]
}

// Locales returns the supported locale codes, sorted
func Locales() []string {
	locales := make([]string, 0, len(builtinLabels))
	for l := range builtinLabels {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// For returns the label of a role
func (l Labels) For(role models.Role) string {
	if role == models.RoleUser {
		return l.User
	}
	return l.Assistant
}

// ErrorText formats a server-reported error for inclusion in an answer
func (l Labels) ErrorText(msg string) string {
	return "\n[" + l.Error + "] " + msg
}
