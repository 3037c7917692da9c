// Package i18n provides the static English/Hausa translation table used
// for email subjects and user-facing labels.
package i18n

// Supported languages. Anything else falls back to English.
const (
	LangEnglish = "en"
	LangHausa   = "ha"
)

// Normalize returns a supported language code, defaulting to English.
func Normalize(lang string) string {
	switch lang {
	case LangEnglish, LangHausa:
		return lang
	default:
		return LangEnglish
	}
}

// T resolves key for the given language. Unknown keys resolve to the
// English string, and failing that to the key itself so a missing
// translation never blanks out a subject line.
func T(lang, key string) string {
	lang = Normalize(lang)
	if s, ok := translations[lang][key]; ok {
		return s
	}
	if s, ok := translations[LangEnglish][key]; ok {
		return s
	}
	return key
}

var translations = map[string]map[string]string{
	LangEnglish: {
		// Email subjects.
		"financial_health_financial_health_report": "Your Financial Health Report",
		"budget_plan_summary":                      "Your Budget Plan Summary",
		"quiz_results_summary":                     "Your Financial Personality Quiz Results",
		"bill_payment_reminder":                    "Bill Payment Reminder",
		"net_worth_net_worth_summary":              "Your Net Worth Summary",
		"emergency_fund_email_subject":             "Your Emergency Fund Plan",
		"learning_hub_lesson_completed_subject":    "Lesson Completed - Keep Learning!",

		// Bill statuses.
		"bill_status_unpaid":  "Unpaid",
		"bill_status_paid":    "Paid",
		"bill_status_pending": "Pending",
		"bill_status_overdue": "Overdue",

		// Score statuses.
		"financial_health_status_excellent":         "Excellent",
		"financial_health_status_good":              "Good",
		"financial_health_status_needs_improvement": "Needs Improvement",

		// Badges.
		"net_worth_badge_wealth_builder":        "Wealth Builder",
		"net_worth_badge_debt_free":             "Debt Free",
		"net_worth_badge_savings_champion":      "Savings Champion",
		"net_worth_badge_property_mogul":        "Property Mogul",
		"financial_health_badge_financial_star": "Financial Star",
		"financial_health_badge_debt_manager":   "Debt Manager",
		"financial_health_badge_savings_pro":    "Savings Pro",
		"financial_health_badge_interest_free":  "Interest Free",

		// Bill categories.
		"bill_category_utilities":           "Utilities",
		"bill_category_rent":                "Rent",
		"bill_category_data_internet":       "Data/Internet",
		"bill_category_ajo_esusu_adashe":    "Ajo/Esusu/Adashe",
		"bill_category_food":                "Food",
		"bill_category_transport":           "Transport",
		"bill_category_clothing":            "Clothing",
		"bill_category_education":           "Education",
		"bill_category_healthcare":          "Healthcare",
		"bill_category_entertainment":       "Entertainment",
		"bill_category_airtime":             "Airtime",
		"bill_category_school_fees":         "School Fees",
		"bill_category_savings_investments": "Savings/Investments",
		"bill_category_other":               "Other",
	},
	LangHausa: {
		"financial_health_financial_health_report": "Rahoton Lafiyar Kudin Ku",
		"budget_plan_summary":                      "Takaitaccen Tsarin Kasafin Ku",
		"quiz_results_summary":                     "Sakamakon Tambayoyin Halin Kudin Ku",
		"bill_payment_reminder":                    "Tunatarwar Biyan Kudade",
		"net_worth_net_worth_summary":              "Takaitaccen Darajar Dukiyar Ku",
		"emergency_fund_email_subject":             "Tsarin Asusun Gaggawa Na Ku",
		"learning_hub_lesson_completed_subject":    "An Kammala Darasi - Ci Gaba Da Koyo!",

		"bill_status_unpaid":  "Ba a Biya Ba",
		"bill_status_paid":    "An Biya",
		"bill_status_pending": "Ana Jira",
		"bill_status_overdue": "Ya Wuce Lokaci",

		"financial_health_status_excellent":         "Mai Kyau Sosai",
		"financial_health_status_good":              "Mai Kyau",
		"financial_health_status_needs_improvement": "Na Bukatar Ingantawa",

		"net_worth_badge_wealth_builder":        "Mai Gina Dukiya",
		"net_worth_badge_debt_free":             "Ba Bashi",
		"net_worth_badge_savings_champion":      "Gwarzon Ajiya",
		"net_worth_badge_property_mogul":        "Mai Gidaje",
		"financial_health_badge_financial_star": "Tauraron Kudi",
		"financial_health_badge_debt_manager":   "Mai Sarrafa Bashi",
		"financial_health_badge_savings_pro":    "Kwararren Ajiya",
		"financial_health_badge_interest_free":  "Ba Ruwan Bashi",

		"bill_category_utilities":           "Kayan Amfani",
		"bill_category_rent":                "Hayar Gida",
		"bill_category_data_internet":       "Data/Intanet",
		"bill_category_ajo_esusu_adashe":    "Ajo/Esusu/Adashe",
		"bill_category_food":                "Abinci",
		"bill_category_transport":           "Sufuri",
		"bill_category_clothing":            "Tufafi",
		"bill_category_education":           "Ilimi",
		"bill_category_healthcare":          "Kiwon Lafiya",
		"bill_category_entertainment":       "Nishadi",
		"bill_category_airtime":             "Katin Waya",
		"bill_category_school_fees":         "Kudin Makaranta",
		"bill_category_savings_investments": "Ajiya/Zuba Jari",
		"bill_category_other":               "Sauran",
	},
}
