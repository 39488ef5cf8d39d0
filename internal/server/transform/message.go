package transform

import "github.com/dmitrijs2005/triagekeeper/internal/server/models"

const FieldContent = "content"

// MessageToStorage encrypts the message content.
func MessageToStorage(enc Encrypter, m models.Message) (models.StoredMessage, error) {
	content, err := sealString(enc, FieldContent, m.Content)
	if err != nil {
		return models.StoredMessage{}, err
	}
	return models.StoredMessage{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Role:             m.Role,
		ContentEncrypted: content,
		CreatedAt:        m.CreatedAt,
	}, nil
}

// MessageFromStorage restores a stored message.
func MessageFromStorage(dec Decrypter, s models.StoredMessage) (models.Message, Report) {
	report := make(Report, 0, 1)
	return models.Message{
		ID:        s.ID,
		SessionID: s.SessionID,
		Role:      s.Role,
		Content:   openString(dec, FieldContent, s.ContentEncrypted, &report),
		CreatedAt: s.CreatedAt,
	}, report
}
