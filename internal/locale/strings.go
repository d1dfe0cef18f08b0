package locale

import (
	"fmt"
	"strings"
)

// Strings holds every user-facing text for one language
type Strings struct {
	ChooseMessages    string
	GeneratingSummary string
	NoMessages        string
	ErrorGenerating   string
	ErrorButtons      string
	ErrorConfig       string
	ErrorGeneric      string
	ErrorThread       string
	ServerOnly        string
	Cooldown          string
	InvalidLimit      string
	InvalidRole       string

	Last10    string
	Last30    string
	Last50    string
	Last100   string
	Last200   string
	Today     string
	Yesterday string
	Last3Days string
	LastWeek  string

	// AutoLanguage is shown when the user follows the Discord client locale
	AutoLanguage string

	summaryCreated    string
	usageLimitReached string
	configCurrent     string
	configUpdated     string
	threadName        string
	limitUpdated      string
	roleAdded         string
	roleRemoved       string
	settingsHeader    string
	exemptRoles       string
	noExemptRoles     string
	noUsageToday      string
}

// SummaryCreated tells the user where the summary was posted
func (s *Strings) SummaryCreated(thread string) string {
	return fmt.Sprintf(s.summaryCreated, thread)
}

// UsageLimitReached reports the remaining uses for today
func (s *Strings) UsageLimitReached(remaining int) string {
	return fmt.Sprintf(s.usageLimitReached, remaining)
}

// ConfigCurrent renders the current configuration
func (s *Strings) ConfigCurrent(language string) string {
	return strings.ReplaceAll(s.configCurrent, "{language}", language)
}

// ConfigUpdated renders the configuration update confirmation
func (s *Strings) ConfigUpdated(language string) string {
	return strings.ReplaceAll(s.configUpdated, "{language}", language)
}

// ThreadName returns the title of a summary thread created on date
func (s *Strings) ThreadName(date string) string {
	return fmt.Sprintf(s.threadName, date)
}

// LimitUpdated confirms a new daily quota
func (s *Strings) LimitUpdated(limit int) string {
	return fmt.Sprintf(s.limitUpdated, limit)
}

// RoleAdded confirms an exempt role was added
func (s *Strings) RoleAdded(role string) string {
	return fmt.Sprintf(s.roleAdded, role)
}

// RoleRemoved confirms an exempt role was removed
func (s *Strings) RoleRemoved(role string) string {
	return fmt.Sprintf(s.roleRemoved, role)
}

// SettingsHeader is the first line of the admin settings view
func (s *Strings) SettingsHeader(limit int) string {
	return fmt.Sprintf(s.settingsHeader, limit)
}

// ExemptRoles lists the guild's unlimited roles
func (s *Strings) ExemptRoles(names []string) string {
	return fmt.Sprintf(s.exemptRoles, strings.Join(names, ", "))
}

// NoExemptRoles is shown when the guild has no exempt roles
func (s *Strings) NoExemptRoles() string { return s.noExemptRoles }

// NoUsageToday is shown when nobody used the bot today
func (s *Strings) NoUsageToday() string { return s.noUsageToday }

var tables = map[Tag]*Strings{
	English: {
		ChooseMessages:    "Choose how many messages to summarize:",
		GeneratingSummary: "Generating summary...",
		NoMessages:        "No messages found in the selected time period.",
		ErrorGenerating:   "Sorry, there was an error generating the summary. Please try again later.",
		ErrorButtons:      "Sorry, there was an error creating the buttons. Please try again later.",
		ErrorConfig:       "An error occurred while updating your configuration. Please try again.",
		ErrorGeneric:      "Something went wrong. Please try again later.",
		ErrorThread:       "Sorry, the summary thread could not be created.",
		ServerOnly:        "This command can only be used in a server.",
		Cooldown:          "Please wait a few seconds before using another admin command.",
		InvalidLimit:      "The daily limit must be at least 1.",
		InvalidRole:       "Please choose a role.",

		Last10:    "Last 10",
		Last30:    "Last 30",
		Last50:    "Last 50",
		Last100:   "Last 100",
		Last200:   "Last 200",
		Today:     "Today",
		Yesterday: "Yesterday",
		Last3Days: "Last 3 Days",
		LastWeek:  "Last Week",

		AutoLanguage: "Auto (Discord)",

		summaryCreated:    "Summary has been created in thread: %s",
		usageLimitReached: "You have reached your daily usage limit. You have %d uses remaining.",
		configCurrent:     "Your current configuration:\nLanguage: {language}",
		configUpdated:     "Configuration updated!\nLanguage set to: {language}",
		threadName:        "Summary %s",
		limitUpdated:      "Daily usage limit set to %d.",
		roleAdded:         "Role %s no longer has a daily limit.",
		roleRemoved:       "Role %s is subject to the daily limit again.",
		settingsHeader:    "**Daily usage limit:** %d",
		exemptRoles:       "**Unlimited roles:** %s",
		noExemptRoles:     "No unlimited roles.",
		noUsageToday:      "No usage today.",
	},
	Polish: {
		ChooseMessages:    "Wybierz ile wiadomości podsumować:",
		GeneratingSummary: "Generowanie podsumowania...",
		NoMessages:        "Nie znaleziono wiadomości w wybranym okresie.",
		ErrorGenerating:   "Przepraszam, wystąpił błąd podczas generowania podsumowania. Spróbuj ponownie później.",
		ErrorButtons:      "Przepraszam, wystąpił błąd podczas tworzenia przycisków. Spróbuj ponownie później.",
		ErrorConfig:       "Wystąpił błąd podczas aktualizacji konfiguracji. Spróbuj ponownie.",
		ErrorGeneric:      "Coś poszło nie tak. Spróbuj ponownie później.",
		ErrorThread:       "Przepraszam, nie udało się utworzyć wątku z podsumowaniem.",
		ServerOnly:        "Tej komendy można użyć tylko na serwerze.",
		Cooldown:          "Odczekaj kilka sekund przed użyciem kolejnej komendy administracyjnej.",
		InvalidLimit:      "Dzienny limit musi wynosić co najmniej 1.",
		InvalidRole:       "Wybierz rolę.",

		Last10:    "Ostatnie 10",
		Last30:    "Ostatnie 30",
		Last50:    "Ostatnie 50",
		Last100:   "Ostatnie 100",
		Last200:   "Ostatnie 200",
		Today:     "Dzisiaj",
		Yesterday: "Wczoraj",
		Last3Days: "Ostatnie 3 dni",
		LastWeek:  "Ostatni tydzień",

		AutoLanguage: "Automatyczny (Discord)",

		summaryCreated:    "Podsumowanie zostało utworzone w wątku: %s",
		usageLimitReached: "Osiągnąłeś dzienny limit użycia. Pozostało Ci %d użyć.",
		configCurrent:     "Twoja aktualna konfiguracja:\nJęzyk: {language}",
		configUpdated:     "Konfiguracja zaktualizowana!\nJęzyk ustawiony na: {language}",
		threadName:        "Podsumowanie %s",
		limitUpdated:      "Dzienny limit użycia ustawiony na %d.",
		roleAdded:         "Rola %s nie ma już dziennego limitu.",
		roleRemoved:       "Rola %s ponownie podlega dziennemu limitowi.",
		settingsHeader:    "**Dzienny limit użycia:** %d",
		exemptRoles:       "**Role bez limitu:** %s",
		noExemptRoles:     "Brak ról bez limitu.",
		noUsageToday:      "Brak użycia dzisiaj.",
	},
}

// For returns the string table for locale, falling back to English
func For(locale string) *Strings {
	return tables[Normalize(locale)]
}
