package site

import "NewsRelay/internal/domain"

// BBC returns the profile for www.bbc.com.
func BBC() Profile {
	return Profile{
		Name:   "bbc",
		Origin: "https://www.bbc.com",
		Seeds: []domain.CategorySeed{
			{
				Name: "news",
				Pages: []string{
					"https://www.bbc.com/news",
					"https://www.bbc.com/news/world",
					"https://www.bbc.com/news/uk",
					"https://www.bbc.com/news/business",
					"https://www.bbc.com/news/politics",
					"https://www.bbc.com/news/health",
					"https://www.bbc.com/news/education",
					"https://www.bbc.com/news/technology",
				},
			},
			{
				Name: "sport",
				Pages: []string{
					"https://www.bbc.com/sport",
					"https://www.bbc.com/sport/football",
				},
			},
			{
				Name: "culture",
				Pages: []string{
					"https://www.bbc.com/culture",
					"https://www.bbc.com/travel",
				},
			},
		},
		LinkSelectors: []string{
			`a[href*="/news/"]`,
			`a[href*="/sport/"]`,
			`a[href*="/culture/"]`,
			`a[data-testid="internal-link"]`,
			`.gs-c-promo-heading a`,
			`.media__link`,
			`[class*="promo"] a[href]`,
			`.story-link`,
			`h2 a[href], h3 a[href]`,
		},
		TitleSelectors: []string{
			`h1[data-testid="headline"]`,
			`h1.story-body__h1`,
			`h1`,
			`.story-headline h1`,
			`[data-testid="headline"]`,
		},
		BodySelectors: []string{
			`[data-component="text-block"]`,
			`.story-body__inner p`,
			`.ssrcss-uf6wea-RichTextComponentWrapper p`,
			`div[data-component="text-block"] p`,
			`.gel-body-copy p`,
			`p`,
		},
		DeniedPatterns: []string{
			"/live/", "/topics/", "/programmes/", "/sounds/",
			"/weather/", "/search/", "/contact/", "/about/",
			"/accessibility/", "/privacy/", "/cookies/",
			"/player/", "/iplayer/", "/contact",
			".json", ".xml", ".css", ".js", ".png", ".jpg",
			"#", "?", "mailto:", "tel:",
		},
		AllowedPatterns: []string{
			"/news/", "/sport/", "/culture/", "/travel/",
			"/future/", "/worklife/",
		},
		CategoryRules: []CategoryRule{
			{Category: "world", Contains: []string{"/news/", "/world/"}},
			{Category: "uk", Contains: []string{"/news/", "/uk/"}},
			{Category: "business", Contains: []string{"/news/", "/business/"}},
			{Category: "politics", Contains: []string{"/news/", "/politics/"}},
			{Category: "health", Contains: []string{"/news/", "/health/"}},
			{Category: "technology", Contains: []string{"/news/", "/technology/"}},
			{Category: "science", Contains: []string{"/news/", "/science/"}},
			{Category: "news", Contains: []string{"/news/"}},
			{Category: "sport", Contains: []string{"/sport/"}},
			{Category: "culture", Contains: []string{"/culture/"}},
			{Category: "travel", Contains: []string{"/travel/"}},
			{Category: "future", Contains: []string{"/future/"}},
		},
		DefaultCategory: "general",
	}
}
