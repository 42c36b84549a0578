package marketing

import "strings"

// Lead is the attribute set scored for sales prioritization.
type Lead struct {
	CompanySize          int    `json:"company_size"`
	Industry             string `json:"industry"`
	PageViews            int    `json:"page_views"`
	DownloadedWhitepaper bool   `json:"downloaded_whitepaper"`
	RequestedDemo        bool   `json:"requested_demo"`
}

// targetIndustries get the industry-fit bonus.
var targetIndustries = map[string]bool{
	"logistics":    true,
	"transport":    true,
	"supply_chain": true,
	"warehousing":  true,
}

// LeadScore rates a lead 0-100. Additive attribute scoring, capped.
func LeadScore(lead Lead) int {
	score := 0

	switch {
	case lead.CompanySize > 500:
		score += 30
	case lead.CompanySize > 100:
		score += 20
	case lead.CompanySize > 20:
		score += 10
	}

	if targetIndustries[strings.ToLower(lead.Industry)] {
		score += 25
	}

	switch {
	case lead.PageViews > 10:
		score += 15
	case lead.PageViews > 5:
		score += 10
	case lead.PageViews > 2:
		score += 5
	}

	if lead.DownloadedWhitepaper {
		score += 10
	}
	if lead.RequestedDemo {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return score
}

// LeadRecommendation turns a score into the sales action for it.
func LeadRecommendation(score int) string {
	switch {
	case score >= 70:
		return "HOT - Contact immediately for demo"
	case score >= 50:
		return "WARM - Nurture with targeted content, schedule call"
	case score >= 30:
		return "COLD - Add to email drip campaign"
	default:
		return "NOT QUALIFIED - Revisit in 3 months"
	}
}
