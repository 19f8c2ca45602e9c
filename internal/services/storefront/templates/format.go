package templates

import (
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

var frenchPrinter = message.NewPrinter(language.French)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var frenchShortMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// Paris is the display time zone.
var Paris = loadParis()

func loadParis() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatPrice renders amount in euros with French separators.
func FormatPrice(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return frenchPrinter.Sprint(number.Decimal(value, number.Scale(2))) + " €"
}

// FormatDate renders t as "2 janvier 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(Paris)
	return strconv.Itoa(t.Day()) + " " + frenchMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// FormatDateTime renders t as "2 janv. 2026, 14:05".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(Paris)
	return t.Format("2") + " " + frenchShortMonths[t.Month()-1] + " " + t.Format("2006, 15:04")
}

// Truncate shortens text to limit runes, adding an ellipsis.
func Truncate(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if limit <= 0 || len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func statusClass(status domain.OrderStatus) string {
	return "status-" + string(status.Display())
}
