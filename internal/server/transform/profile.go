package transform

import "github.com/dmitrijs2005/triagekeeper/internal/server/models"

// Sensitive profile field names, as used in reports and column prefixes.
const (
	FieldFullName    = "full_name"
	FieldDateOfBirth = "date_of_birth"
	FieldPhone       = "phone"
)

// ProfileToStorage encrypts the profile's sensitive fields.
func ProfileToStorage(enc Encrypter, p models.Profile) (models.StoredProfile, error) {
	out := models.StoredProfile{
		ID:        p.ID,
		UserID:    p.UserID,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	var err error
	if out.FullNameEncrypted, err = sealString(enc, FieldFullName, p.FullName); err != nil {
		return models.StoredProfile{}, err
	}
	if out.DateOfBirthEncrypted, err = sealString(enc, FieldDateOfBirth, p.DateOfBirth); err != nil {
		return models.StoredProfile{}, err
	}
	if out.PhoneEncrypted, err = sealString(enc, FieldPhone, p.Phone); err != nil {
		return models.StoredProfile{}, err
	}
	return out, nil
}

// ProfileFromStorage restores a stored profile, omitting undecryptable fields.
func ProfileFromStorage(dec Decrypter, s models.StoredProfile) (models.Profile, Report) {
	report := make(Report, 0, 3)
	p := models.Profile{
		ID:        s.ID,
		UserID:    s.UserID,
		AvatarURL: s.AvatarURL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	p.FullName = openString(dec, FieldFullName, s.FullNameEncrypted, &report)
	p.DateOfBirth = openString(dec, FieldDateOfBirth, s.DateOfBirthEncrypted, &report)
	p.Phone = openString(dec, FieldPhone, s.PhoneEncrypted, &report)
	return p, report
}
