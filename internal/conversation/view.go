package conversation

import (
	"time"

	"github.com/capitalize-ai/theology-chat/internal/theology"
)

// Welcome texts shown while the log is empty.
const (
	WelcomeTitle = "Bienvenido al Asistente de Teología Reformada"
	WelcomeHint  = "Haz una pregunta sobre doctrina reformada, teología sistemática, o cualquier tema bíblico."
)

// DefaultBadgeClass is used for categories without a mapping.
const DefaultBadgeClass = "bg-gray-100 text-gray-800"

var badgeClasses = map[string]string{
	theology.CategoryTheologyProper: "category-theology-propria",
	theology.CategorySoteriology:    "category-soteriologia",
	theology.CategoryEcclesiology:   "category-ecclesiologia",
	theology.CategoryEschatology:    "category-escatologia",
	theology.CategoryChristology:    "category-theology-propria",
	theology.CategoryPneumatology:   "category-soteriologia",
	theology.CategoryAnthropology:   "category-ecclesiologia",
	theology.CategoryBibliology:     "category-escatologia",
}

// EmptyState reports whether the welcome prompt should be shown.
func EmptyState(s State) bool {
	return len(s.Messages) == 0
}

// WelcomeText returns the prompt shown for an empty conversation.
func WelcomeText() string {
	return WelcomeTitle + "\nDesarrollado por " + theology.Authors + "\n" + WelcomeHint
}

// BadgeClass returns the display class of a category badge. Messages without
// a category get no badge.
func BadgeClass(category string) string {
	if category == "" {
		return ""
	}
	if class, ok := badgeClasses[category]; ok {
		return class
	}
	return DefaultBadgeClass
}

// FormatTimestamp formats a message time for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("15:04:05")
}
