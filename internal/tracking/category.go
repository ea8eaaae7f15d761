package tracking

import "strings"

type Category string

const (
	CategoryWork       Category = "work"
	CategorySocial     Category = "social_media"
	CategorySuspicious Category = "suspicious"
)

// KeywordSets holds the keyword lists the categorizer matches against, in
// priority order: suspicious beats work beats social.
type KeywordSets struct {
	Suspicious []string
	Work       []string
	Social     []string
}

// DefaultKeywords returns the production keyword lists.
func DefaultKeywords() KeywordSets {
	return KeywordSets{
		Suspicious: []string{
			// Gambling/Betting
			"judi", "taruhan", "betting", "bet", "odds",
			"slot", "casino", "poker", "roulette", "blackjack",
			"sbobet", "maxbet", "togel", "jackpot",
			"deposit", "withdraw", "bonus slot", "gacor",

			// Online Gaming
			"mobile legends", "mobilelegends", "ml.", "mlbb",
			"free fire", "freefire", "garena",
			"pubg", "fortnite", "valorant", "apex legends",
			"steam", "epicgames", "battle.net",
			"roblox", "minecraft", "genshin", "honkai",
			"mobile legend", "game online",
		},
		Work: []string{
			// Office Apps
			"excel", "xls", "xlsx", "spreadsheet",
			"word", "doc", "docx", "document",
			"powerpoint", "ppt", "pptx", "presentation",
			"pdf", "adobe", "acrobat",

			// Accounting/Finance
			"accurate", "coretax", "pajak.go.id", "e-faktur", "efaktur",
			"e-spt", "espt", "jurnal.id", "zahir", "myob",
			"accounting", "finance", "akuntansi", "keuangan",

			// Email
			"mail.google.com", "gmail", "outlook", "office.com",
			"email", "inbox", "webmail",

			// Productivity Tools
			"drive.google.com", "docs.google.com", "sheets.google.com",
			"dropbox", "onedrive", "notion", "trello", "asana",

			// Communication (work)
			"slack", "teams", "zoom", "meet.google.com",
			"skype", "webex",

			// Development
			"github", "gitlab", "bitbucket", "stackoverflow",
			"localhost", "dev.", "staging.", "admin.",
		},
		Social: []string{
			// Social Media
			"youtube", "youtu.be", "instagram", "tiktok",
			"facebook", "fb.com", "twitter", "x.com",
			"whatsapp.com", "telegram.org", "linkedin.com",

			// Entertainment
			"netflix", "disney", "hbo", "spotify",
			"soundcloud", "twitch", "reddit",

			// Shopping
			"tokopedia", "shopee", "lazada", "bukalapak",
			"amazon", "ebay", "alibaba", "olx", "carousell",

			// News/Portal (non-work)
			"detik.com", "kompas.com", "tribun",
			"liputan6", "cnnindonesia",
		},
	}
}

// Categorizer classifies a URL visit into one of the three categories by
// case-insensitive substring matching against its keyword sets.
type Categorizer struct {
	keywords KeywordSets
}

func NewCategorizer(keywords KeywordSets) *Categorizer {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, kw := range in {
			out[i] = strings.ToLower(kw)
		}
		return out
	}
	return &Categorizer{keywords: KeywordSets{
		Suspicious: lower(keywords.Suspicious),
		Work:       lower(keywords.Work),
		Social:     lower(keywords.Social),
	}}
}

// Categorize combines url, domain and page title into one lowercase search
// buffer and returns the first category with a keyword hit, checking
// suspicious, then work, then social. Unmatched input defaults to work:
// unknown sites get the benefit of the doubt, which is stated product policy
// even though it under-flags novel suspicious domains.
func (c *Categorizer) Categorize(url, domain, pageTitle string) Category {
	searchText := strings.ToLower(url + " " + domain + " " + pageTitle)

	for _, kw := range c.keywords.Suspicious {
		if strings.Contains(searchText, kw) {
			return CategorySuspicious
		}
	}
	for _, kw := range c.keywords.Work {
		if strings.Contains(searchText, kw) {
			return CategoryWork
		}
	}
	for _, kw := range c.keywords.Social {
		if strings.Contains(searchText, kw) {
			return CategorySocial
		}
	}

	return CategoryWork
}

// Label returns the display name used by the dashboard.
func (c Category) Label() string {
	switch c {
	case CategorySocial:
		return "Media Sosial"
	case CategorySuspicious:
		return "Tidak Teridentifikasi"
	default:
		return "Pekerjaan"
	}
}

// Color returns the hex color used for report cells.
func (c Category) Color() string {
	switch c {
	case CategorySocial:
		return "FFC000"
	case CategorySuspicious:
		return "FF0000"
	default:
		return "70AD47"
	}
}

func (c Category) Icon() string {
	switch c {
	case CategorySocial:
		return "🔴"
	case CategorySuspicious:
		return "⚫"
	default:
		return "🟢"
	}
}
