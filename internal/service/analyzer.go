package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/supportdesk/backend/internal/models"
)

// Urgency keyword tiers. Presence anywhere in the ticket text counts once per
// keyword, not per occurrence.
var (
	criticalKeywords = []string{
		"critical", "urgent", "immediate", "emergency", "down", "outage",
		"not working", "failed", "error", "breach", "security incident",
		"malware", "attack", "unauthorized", "compromised", "business-critical",
		"production", "unable to work", "completely", "all users", "major",
	}

	highKeywords = []string{
		"high", "important", "asap", "soon", "performance", "slow",
		"degradation", "affecting", "multiple users", "department",
		"deadline", "presentation", "meeting",
	}

	mediumKeywords = []string{
		"medium", "moderate", "some users", "intermittent", "occasionally",
		"sometimes", "specific user", "one user",
	}
)

// skillKeywords is the flat scan list for skill extraction. Discovery order
// here decides which matched skill shows up first in the rationale.
var skillKeywords = []string{
	"vpn", "email", "outlook", "sharepoint", "teams", "onedrive",
	"microsoft 365", "office 365", "windows", "linux", "database", "sql",
	"network", "firewall", "security", "malware", "phishing", "hardware",
	"laptop", "printer", "voip", "phone", "azure", "aws", "cloud",
	"active directory", "dns", "ssl", "certificate", "powershell",
	"script", "python", "mac", "macos", "api", "web", "server",
	"samba", "jenkins", "docker", "kubernetes", "switch", "router",
	"cisco", "monitoring", "siem", "endpoint", "virtualization",
	"vmware", "licensing", "saas", "integration", "backup", "boot",
	"wifi", "cable", "fan", "memory", "ram", "disk space",
}

type techPattern struct {
	re      *regexp.Regexp
	keyword string
}

// techPatterns normalize compound technical mentions ("Windows 11",
// "502 Bad Gateway", "SSO") to a flat skill keyword.
var techPatterns = []techPattern{
	{regexp.MustCompile(`microsoft\s+365`), "microsoft 365"},
	{regexp.MustCompile(`office\s+365`), "microsoft 365"},
	{regexp.MustCompile(`windows\s+\d+`), "windows"},
	{regexp.MustCompile(`sql\s+server`), "sql"},
	{regexp.MustCompile(`active\s+directory`), "active directory"},
	{regexp.MustCompile(`exchange\s+server`), "email"},
	{regexp.MustCompile(`sharepoint\s+online`), "sharepoint"},
	{regexp.MustCompile(`office\s+suite`), "microsoft 365"},
	{regexp.MustCompile(`xps\s+\d+`), "laptop"},
	{regexp.MustCompile(`dell\s+latitude`), "laptop"},
	{regexp.MustCompile(`macbook`), "mac"},
	{regexp.MustCompile(`big\s+sur`), "mac"},
	{regexp.MustCompile(`network\s+switch`), "switch"},
	{regexp.MustCompile(`ip\s+address`), "network"},
	{regexp.MustCompile(`dhcp\s+server`), "network"},
	{regexp.MustCompile(`502\s+bad\s+gateway`), "web"},
	{regexp.MustCompile(`503\s+service\s+unavailable`), "web"},
	{regexp.MustCompile(`404\s+error`), "web"},
	{regexp.MustCompile(`500\s+internal\s+server\s+error`), "web"},
	{regexp.MustCompile(`single\s+sign.on`), "active directory"},
	{regexp.MustCompile(`sso`), "active directory"},
	{regexp.MustCompile(`saml`), "active directory"},
}

// PriorityAt derives a priority level in [1,5] from urgency keyword density
// and ticket age at the given instant. Callers scheduling a run should compute
// it once per ticket and reuse the value; the age term makes repeated calls
// drift across the 8h/24h boundaries.
func PriorityAt(t models.Ticket, now time.Time) float64 {
	text := strings.ToLower(t.Title + " " + t.Description)

	criticalCount := countPresent(text, criticalKeywords)
	highCount := countPresent(text, highKeywords)
	mediumCount := countPresent(text, mediumKeywords)

	priority := 1.0
	switch {
	case criticalCount >= 2:
		priority = 5
	case criticalCount >= 1:
		priority = 4
	case highCount >= 2:
		priority = 3
	case highCount >= 1 || mediumCount >= 3:
		priority = 2
	case mediumCount >= 1:
		priority = 2
	}

	ageHours := now.Sub(time.Unix(t.CreationTimestamp, 0)).Hours()
	if ageHours > 24 {
		priority += 1.0
	} else if ageHours > 8 {
		priority += 0.5
	}

	if priority > 5 {
		priority = 5
	}
	return priority
}

// Priority is PriorityAt against the wall clock, for display callers.
func Priority(t models.Ticket) float64 {
	return PriorityAt(t, time.Now())
}

// ExtractKeywords returns the skill keywords mentioned in the ticket text, in
// discovery order: flat keyword scan first, then regex normalizers, duplicates
// suppressed.
func ExtractKeywords(t models.Ticket) []string {
	text := strings.ToLower(t.Title + " " + t.Description)

	var found []string
	seen := map[string]bool{}
	for _, keyword := range skillKeywords {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
			seen[keyword] = true
		}
	}

	for _, p := range techPatterns {
		if p.re.MatchString(text) && !seen[p.keyword] {
			found = append(found, p.keyword)
			seen[p.keyword] = true
		}
	}

	return found
}

func countPresent(text string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			count++
		}
	}
	return count
}
