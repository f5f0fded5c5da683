package storage

import (
	"gorm.io/gorm"

	"video-summary/internal/types"
)

func CreateChatSession(session *types.ChatSession) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Create(session).Error
}

// GetChatSession loads a session with its messages in insertion order.
func GetChatSession(sessionId string) (*types.ChatSession, error) {
	if DB == nil {
		return nil, errNotInitialized
	}
	var session types.ChatSession
	err := DB.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Where("session_id = ?", sessionId).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendChatMessages stores messages for sessionId in one transaction.
func AppendChatMessages(sessionId string, messages ...types.ChatMessage) error {
	if DB == nil {
		return errNotInitialized
	}
	if len(messages) == 0 {
		return nil
	}
	for i := range messages {
		messages[i].SessionId = sessionId
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&messages).Error
	})
}

func DeleteChatSession(sessionId string) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionId).Delete(&types.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionId).Delete(&types.ChatSession{}).Error
	})
}
