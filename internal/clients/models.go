package clients

import (
	"time"

	"gorm.io/datatypes"
)

// OnlineWindow is how recently a client must have been seen to count as
// online.
const OnlineWindow = 5 * time.Minute

// Client is one monitored machine, identified by the opaque client_id its
// agent reports (not the numeric row id).
type Client struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ClientID       string         `gorm:"size:255;uniqueIndex;not null" json:"client_id"`
	Hostname       string         `gorm:"size:255;not null" json:"hostname"`
	IPAddress      string         `gorm:"size:64" json:"ip_address"`
	Username       string         `gorm:"size:255" json:"username"`
	CustomUsername string         `gorm:"size:255" json:"custom_username,omitempty"`
	OsInfo         datatypes.JSON `json:"os_info,omitempty"`
	Timezone       string         `gorm:"size:100" json:"timezone"`
	Status         string         `gorm:"size:32" json:"status"`
	FirstSeen      time.Time      `json:"first_seen"`
	LastSeen       *time.Time     `json:"last_seen,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

// SeenWithin reports whether the client was seen within the online window as
// of now. Used as the fallback when the presence cache has no answer.
func (c *Client) SeenWithin(now time.Time) bool {
	if c.LastSeen == nil {
		return false
	}
	return now.Sub(*c.LastSeen) <= OnlineWindow
}

// DisplayUsername returns the admin-assigned name when set, else the name the
// agent reported.
func (c *Client) DisplayUsername() string {
	if c.CustomUsername != "" {
		return c.CustomUsername
	}
	return c.Username
}
