package models

// Явные имена таблиц вместо плюрализации gorm

func (User) TableName() string             { return "users" }
func (Room) TableName() string             { return "chat_rooms" }
func (RoomMember) TableName() string       { return "chat_room_members" }
func (Message) TableName() string          { return "chat_messages" }
func (MessageRead) TableName() string      { return "chat_message_reads" }
func (Attachment) TableName() string       { return "chat_attachments" }
func (UserOnlineStatus) TableName() string { return "user_online_status" }
func (TypingIndicator) TableName() string  { return "chat_typing" }
