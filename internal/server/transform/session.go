package transform

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/cryptox"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

const (
	FieldConditions     = "conditions"
	FieldRecommendation = "recommendation"
)

// SessionToStorage encrypts conditions (as a JSON array) and recommendation.
// A nil conditions slice is unset; an empty non-nil slice is stored as "[]".
func SessionToStorage(enc Encrypter, s models.SymptomSession) (models.StoredSession, error) {
	out := models.StoredSession{
		ID:           s.ID,
		UserID:       s.UserID,
		UrgencyLevel: s.UrgencyLevel,
		Specialist:   s.Specialist,
		CreatedAt:    s.CreatedAt,
	}

	if s.Conditions != nil {
		text, err := json.Marshal(s.Conditions)
		if err != nil {
			return models.StoredSession{}, fmt.Errorf("field %s: %w", FieldConditions, err)
		}
		blob, err := enc.Encrypt(string(text))
		if err != nil {
			return models.StoredSession{}, fmt.Errorf("field %s: %w", FieldConditions, err)
		}
		out.ConditionsEncrypted = &blob
	}

	var err error
	if out.RecommendationEncrypted, err = sealString(enc, FieldRecommendation, s.Recommendation); err != nil {
		return models.StoredSession{}, err
	}
	return out, nil
}

// SessionFromStorage restores a stored session. A conditions payload that
// decrypts but does not parse as a JSON string array is omitted like any
// other decryption failure.
func SessionFromStorage(dec Decrypter, s models.StoredSession) (models.SymptomSession, Report) {
	report := make(Report, 0, 2)
	out := models.SymptomSession{
		ID:           s.ID,
		UserID:       s.UserID,
		UrgencyLevel: s.UrgencyLevel,
		Specialist:   s.Specialist,
		CreatedAt:    s.CreatedAt,
	}

	if text := openString(dec, FieldConditions, s.ConditionsEncrypted, &report); text != nil {
		var conditions []string
		if err := json.Unmarshal([]byte(*text), &conditions); err != nil || conditions == nil {
			if err == nil {
				err = errors.New("conditions payload is not an array")
			}
			report[len(report)-1] = FieldResult{
				Name:   FieldConditions,
				State:  FieldOmitted,
				Reason: fmt.Errorf("%w: %v", cryptox.ErrDecryption, err),
			}
		} else {
			out.Conditions = conditions
		}
	}

	out.Recommendation = openString(dec, FieldRecommendation, s.RecommendationEncrypted, &report)
	return out, report
}
