package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrClientNotFound = errors.New("client not found")

const defaultTimezone = "Asia/Jakarta"

type RegisterInput struct {
	ClientID  string
	Hostname  string
	IPAddress string
	Username  string
	OsInfo    map[string]any
	Timezone  string
}

// ClientInfo is a Client plus the resolved online flag.
type ClientInfo struct {
	Client
	IsOnline bool `json:"is_online"`
}

// Service owns the client registry: agent registration, heartbeats and
// online-status resolution. Presence is optional; with no cache attached the
// online check uses the persisted last-seen timestamp alone.
type Service struct {
	db       *gorm.DB
	presence *Presence
	now      func() time.Time
}

func NewService(db *gorm.DB, presence *Presence) *Service {
	return &Service{
		db:       db,
		presence: presence,
		now:      time.Now,
	}
}

// Register upserts a client by its client_id. Re-registration refreshes the
// mutable fields (agents re-register on every start, and machines change IP).
// Returns the client and whether it was newly created.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Client, bool, error) {
	clientID := in.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	timezone := in.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}

	osInfo, err := json.Marshal(in.OsInfo)
	if err != nil {
		return nil, false, fmt.Errorf("marshal os info: %w", err)
	}

	now := s.now()

	var client Client
	err = s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&client).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("find client: %w", err)
		}

		client = Client{
			ClientID:  clientID,
			Hostname:  in.Hostname,
			IPAddress: in.IPAddress,
			Username:  in.Username,
			OsInfo:    datatypes.JSON(osInfo),
			Timezone:  timezone,
			Status:    "active",
			FirstSeen: now,
			LastSeen:  &now,
		}
		if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
			return nil, false, fmt.Errorf("create client: %w", err)
		}

		slog.Info("Client registered",
			"client_id", client.ClientID,
			"hostname", client.Hostname,
			"ip_address", client.IPAddress)
		s.touchPresence(ctx, clientID)
		return &client, true, nil
	}

	client.Hostname = in.Hostname
	client.IPAddress = in.IPAddress
	client.Username = in.Username
	client.OsInfo = datatypes.JSON(osInfo)
	client.Timezone = timezone
	client.LastSeen = &now
	if err := s.db.WithContext(ctx).Save(&client).Error; err != nil {
		return nil, false, fmt.Errorf("update client: %w", err)
	}

	slog.Info("Client re-registered",
		"client_id", client.ClientID,
		"hostname", client.Hostname,
		"ip_address", client.IPAddress)
	s.touchPresence(ctx, clientID)
	return &client, false, nil
}

// Heartbeat bumps the client's last-seen timestamp and refreshes its presence
// key.
func (s *Service) Heartbeat(ctx context.Context, clientID string) error {
	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&Client{}).
		Where("client_id = ?", clientID).
		Updates(map[string]any{"last_seen": now, "status": "active"})
	if res.Error != nil {
		return fmt.Errorf("update last seen: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClientNotFound
	}

	s.touchPresence(ctx, clientID)
	return nil
}

func (s *Service) Get(ctx context.Context, clientID string) (*ClientInfo, error) {
	var client Client
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &ClientInfo{Client: client, IsOnline: s.online(ctx, &client)}, nil
}

func (s *Service) List(ctx context.Context) ([]ClientInfo, error) {
	var all []Client
	if err := s.db.WithContext(ctx).Order("hostname").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	infos := make([]ClientInfo, len(all))
	for i, c := range all {
		infos[i] = ClientInfo{Client: c, IsOnline: s.online(ctx, &c)}
	}
	return infos, nil
}

// Exists reports whether a client with this client_id is registered.
func (s *Service) Exists(ctx context.Context, clientID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Client{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count clients: %w", err)
	}
	return count > 0, nil
}

func (s *Service) Delete(ctx context.Context, clientID string) error {
	res := s.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&Client{})
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClientNotFound
	}

	if s.presence != nil {
		if err := s.presence.Forget(ctx, clientID); err != nil {
			slog.Warn("Failed to drop presence key", "client_id", clientID, "error", err)
		}
	}
	slog.Info("Client deleted", "client_id", clientID)
	return nil
}

// UpdateUsername sets the admin-assigned display name.
func (s *Service) UpdateUsername(ctx context.Context, clientID, customUsername string) error {
	res := s.db.WithContext(ctx).
		Model(&Client{}).
		Where("client_id = ?", clientID).
		Update("custom_username", customUsername)
	if res.Error != nil {
		return fmt.Errorf("update username: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

// online consults the presence cache first; a live key is authoritative, and
// anything else (miss, no cache, redis down) falls back to the persisted
// last-seen window.
func (s *Service) online(ctx context.Context, client *Client) bool {
	if s.presence != nil {
		alive, err := s.presence.Online(ctx, client.ClientID)
		if err != nil {
			slog.Warn("Presence lookup failed, using last_seen",
				"client_id", client.ClientID, "error", err)
		} else if alive {
			return true
		}
	}
	return client.SeenWithin(s.now())
}

func (s *Service) touchPresence(ctx context.Context, clientID string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Touch(ctx, clientID); err != nil {
		slog.Warn("Failed to refresh presence key", "client_id", clientID, "error", err)
	}
}
