package types

// SubtitleCache stores the JSON of a SubtitleDocument keyed by the stable
// video identifier (BV id or YouTube id).
type SubtitleCache struct {
	Id         uint64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Identifier string   `json:"identifier" gorm:"uniqueIndex;not null"`
	Platform   Platform `json:"platform"`
	Title      string   `json:"title"`
	Payload    string   `json:"-" gorm:"type:text"`
	CreateTime int64    `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime int64    `json:"update_time" gorm:"autoUpdateTime"`
}

// ChatSession keeps the summary used as context and the conversation so far.
type ChatSession struct {
	Id         uint64        `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionId  string        `json:"session_id" gorm:"uniqueIndex;not null"`
	Identifier string        `json:"identifier"`
	Summary    string        `json:"summary" gorm:"type:text"`
	Messages   []ChatMessage `json:"messages" gorm:"foreignKey:SessionId;references:SessionId"`
	CreateTime int64         `json:"create_time" gorm:"autoCreateTime"`
}

type ChatMessage struct {
	Id         uint64 `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionId  string `json:"-" gorm:"index;not null"`
	Role       string `json:"role"`
	Content    string `json:"content" gorm:"type:text"`
	CreateTime int64  `json:"create_time" gorm:"autoCreateTime"`
}
