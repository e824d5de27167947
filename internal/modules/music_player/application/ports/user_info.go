package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// UserInfo contains display information for a Discord user.
type UserInfo struct {
	DisplayName string
	AvatarURL   string
}

// UserInfoProvider looks up how a requester is shown in notifications.
type UserInfoProvider interface {
	GetUserInfo(guildID, userID snowflake.ID) (*UserInfo, error)
}
