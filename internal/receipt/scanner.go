package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ParsedReceipt is the scanner's best-effort reading of a receipt. Every
// field may be empty; parsing never blocks manual entry.
type ParsedReceipt struct {
	Amount      float64 `json:"amount"`
	Vendor      string  `json:"vendor"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date,omitempty"`
}

// Scanner parses raw receipt text with deterministic rules. It prefers the
// labeled total, falls back to the largest dollar amount on the page, and
// guesses a category from keywords.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a receipt scanner.
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logger}
}

var (
	totalRegex  = regexp.MustCompile(`(?i)total\s+\$?(\d+\.\d{2})`)
	amountRegex = regexp.MustCompile(`\$(\d+\.\d{2})`)
	dateRegex   = regexp.MustCompile(`(?i)date:?\s*(\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2})`)
)

// categoryKeywords maps receipt vocabulary to expense categories. First
// match wins, in declaration order.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Meals", []string{"coffee", "latte", "muffin", "restaurant", "cafe", "pizza", "burger", "lunch", "dinner", "breakfast"}},
	{"Travel", []string{"taxi", "uber", "lyft", "airline", "flight", "hotel", "parking", "train", "rental car"}},
	{"Office Supplies", []string{"staples", "office", "paper", "ink", "toner", "stationery"}},
	{"Software", []string{"license", "subscription", "saas", "cloud"}},
}

// Scan parses receipt text into structured expense fields.
func (s *Scanner) Scan(text string) *ParsedReceipt {
	parsed := &ParsedReceipt{
		Amount:   s.extractAmount(text),
		Vendor:   extractVendor(text),
		Category: classify(text),
		Date:     extractDate(text),
	}
	if parsed.Vendor != "" {
		parsed.Description = parsed.Vendor
	}

	s.logger.Debug("Receipt scanned",
		zap.Float64("amount", parsed.Amount),
		zap.String("vendor", parsed.Vendor),
		zap.String("category", parsed.Category))
	return parsed
}

func (s *Scanner) extractAmount(text string) float64 {
	if m := totalRegex.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}

	// No labeled total: the largest amount on the receipt is usually it.
	var largest float64
	for _, m := range amountRegex.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > largest {
			largest = v
		}
	}
	return largest
}

// extractVendor returns the first non-empty line, which on printed receipts
// is almost always the merchant name.
func extractVendor(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func classify(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.category
			}
		}
	}
	return "Other"
}

func extractDate(text string) string {
	m := dateRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	raw := m[1]
	if t, err := time.Parse("1/2/2006", raw); err == nil {
		return t.Format("2006-01-02")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02")
	}
	return raw
}
