package normalize

import (
	"strings"

	"github.com/MKhiriev/lambda-search/models"
)

// columnVocabulary maps raw source column names (lower-cased, trimmed) onto
// the canonical vocabulary. This is the single authoritative table: the
// ingested dumps spell the same concept many ways ("number", "phone
// number", "телефон"), and both the preview surface and the search
// classifier must resolve them identically.
var columnVocabulary = map[string]string{
	"email":          "email",
	"e-mail":         "email",
	"mail":           "email",
	"почта":          "email",
	"номер телефона": "phone_number",
	"phone number":   "phone_number",
	"phone":          "phone_number",
	"number":         "phone_number",
	"телефон":        "phone_number",
	"password":       "password",
	"пароль":         "password",
	"credit card":    "credit_card",
	"банковская карта": "credit_card",
	"cvv":              "cvv",
	"bank account":     "bank_account",
	"банковский счет":  "bank_account",
	"birthdate":        "birth_date",
	"birth date":       "birth_date",
	"дата рождения":    "birth_date",
	"датарожд":         "birth_date",
	"address":          "address",
	"адрес":            "address",
	"work address":     "work_address",
	"рабочий адрес":    "work_address",
	"city":             "city",
	"город":            "city",
	"zip":              "zip",
	"postal code":      "postal_code",
	"индекс":           "postal_code",
	"имя":              "name",
	"first_name":       "name",
	"first name":       "name",
	"name":             "name",
	"фамилия":          "last_name",
	"last_name":        "last_name",
	"last name":        "last_name",
	"username":         "username",
	"пользователь":     "username",
	"профессия":        "profession",
	"работа":           "job",
	"описание":         "description",
}

// tierByColumn assigns sensitivity tiers to canonical column names.
// Canonical names absent from this map, and raw names the vocabulary does
// not recognize at all, classify as low.
var tierByColumn = map[string]models.SensitivityTier{
	"password":     models.TierCritical,
	"email":        models.TierCritical,
	"phone_number": models.TierCritical,
	"credit_card":  models.TierCritical,
	"cvv":          models.TierCritical,
	"address":      models.TierCritical,
	"bank_account": models.TierCritical,

	"birth_date":   models.TierMedium,
	"work_address": models.TierMedium,
	"city":         models.TierMedium,
	"name":         models.TierMedium,
	"zip":          models.TierMedium,
	"postal_code":  models.TierMedium,
	"username":     models.TierMedium,
	"last_name":    models.TierMedium,
}

// Column resolves a raw source column name to its canonical form. Unknown
// names are returned as given (trimmed only), so callers still display
// something recognizable for columns outside the vocabulary.
func Column(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := columnVocabulary[key]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// Tier classifies a raw column name into its sensitivity tier. The name is
// first resolved through the canonical vocabulary; unrecognized columns are
// low.
func Tier(raw string) models.SensitivityTier {
	if tier, ok := tierByColumn[Column(raw)]; ok {
		return tier
	}
	return models.TierLow
}

// ClassifyColumns buckets raw column names by sensitivity tier, resolving
// each through the canonical vocabulary. Each bucket is de-duplicated and
// keeps first-seen order.
func ClassifyColumns(rawColumns []string) models.ClassifiedColumns {
	classified := models.ClassifiedColumns{
		Critical: []string{},
		Medium:   []string{},
		Low:      []string{},
	}
	seen := make(map[string]struct{}, len(rawColumns))

	for _, raw := range rawColumns {
		canonical := Column(raw)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}

		switch Tier(raw) {
		case models.TierCritical:
			classified.Critical = append(classified.Critical, canonical)
		case models.TierMedium:
			classified.Medium = append(classified.Medium, canonical)
		default:
			classified.Low = append(classified.Low, canonical)
		}
	}

	return classified
}
