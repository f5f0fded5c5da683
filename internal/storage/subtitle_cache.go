package storage

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"video-summary/internal/types"
)

// SaveSubtitleCache upserts the document under identifier.
func SaveSubtitleCache(identifier string, doc *types.SubtitleDocument) error {
	if DB == nil {
		return errNotInitialized
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	entry := types.SubtitleCache{
		Identifier: identifier,
		Platform:   doc.Platform,
		Title:      doc.VideoInfo.Title,
		Payload:    string(payload),
	}

	var existing types.SubtitleCache
	result := DB.Where("identifier = ?", identifier).First(&existing)
	if result.Error == nil {
		entry.Id = existing.Id
		entry.CreateTime = existing.CreateTime
		return DB.Save(&entry).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(&entry).Error
	}
	return result.Error
}

// GetSubtitleCache returns the cached document; ok is false on a miss.
func GetSubtitleCache(identifier string) (doc *types.SubtitleDocument, ok bool, err error) {
	if DB == nil {
		return nil, false, errNotInitialized
	}
	var entry types.SubtitleCache
	if err = DB.Where("identifier = ?", identifier).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	doc = &types.SubtitleDocument{}
	if err = json.Unmarshal([]byte(entry.Payload), doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// ListSubtitleCache returns the most recently updated entries without payloads.
func ListSubtitleCache(limit int) ([]types.SubtitleCache, error) {
	if DB == nil {
		return nil, errNotInitialized
	}
	var entries []types.SubtitleCache
	err := DB.Omit("payload").Order("update_time desc").Limit(limit).Find(&entries).Error
	return entries, err
}

func DeleteSubtitleCache(identifier string) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Where("identifier = ?", identifier).Delete(&types.SubtitleCache{}).Error
}
