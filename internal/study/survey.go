package study

import (
	"fmt"
	"net/url"
)

// Query parameter names expected by the survey form.
const (
	surveyVariantParam = "App_Variant"
	surveyUserParam    = "User_ID"
)

// BuildSurveyURL appends the variant and participant id to the
// configured survey base URL.
func BuildSurveyURL(base, variant, userID string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("survey base url not configured")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse survey base url: %w", err)
	}
	q := u.Query()
	q.Set(surveyVariantParam, variant)
	q.Set(surveyUserParam, userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
