package domain

import "time"

const (
	DefaultHistoryCap   = 20
	DefaultFavoritesCap = 100
	DefaultPremiumDays  = 30
)

type User struct {
	ID               string          `json:"_id"`
	Username         string          `json:"username"`
	PasswordHash     string          `json:"-"`
	Avatar           string          `json:"avatar"`
	IsPremium        bool            `json:"isPremium"`
	PremiumExpiresAt *time.Time      `json:"premiumExpiresAt"`
	IsAdmin          bool            `json:"isAdmin"`
	IsBanned         bool            `json:"isBanned"`
	LastActive       time.Time       `json:"lastActive"`
	CreatedAt        time.Time       `json:"createdAt"`
	Favorites        []FavoriteEntry `json:"favorites"`
	History          []HistoryEntry  `json:"history"`
}

type FavoriteEntry struct {
	MangaID string  `json:"mangaId"`
	Title   string  `json:"title"`
	Image   string  `json:"image"`
	Score   float64 `json:"score"`
}

type HistoryEntry struct {
	MangaID       string    `json:"mangaId"`
	Title         string    `json:"title"`
	Image         string    `json:"image"`
	ChapterNumber float64   `json:"chapterCh"`
	ChapterID     string    `json:"chapterId"`
	LastRead      time.Time `json:"lastRead"`
}

// ExpirePremium clears an entitlement whose expiry is in the past.
// It reports whether the user changed.
func (u *User) ExpirePremium(now time.Time) bool {
	if !u.IsPremium || u.PremiumExpiresAt == nil {
		return false
	}
	if !now.After(*u.PremiumExpiresAt) {
		return false
	}
	u.IsPremium = false
	u.PremiumExpiresAt = nil
	return true
}

// GrantPremium starts a fresh window of the given length; an existing
// expiry is overwritten, never extended.
func (u *User) GrantPremium(now time.Time, days int) {
	exp := now.AddDate(0, 0, days)
	u.IsPremium = true
	u.PremiumExpiresAt = &exp
}

func (u *User) RevokePremium() {
	u.IsPremium = false
	u.PremiumExpiresAt = nil
}

// Sanitized returns a copy safe to hand to clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	if u.Favorites == nil {
		u.Favorites = []FavoriteEntry{}
	}
	if u.History == nil {
		u.History = []HistoryEntry{}
	}
	return u
}

// SessionState is the stored account behind a session token. Requests
// re-check it so bans and demotions apply to tokens already issued.
type SessionState struct {
	Exists  bool
	IsAdmin bool
	Banned  bool // false for accounts exempt from bans
}

type Comment struct {
	ID        string    `json:"_id"`
	MangaID   string    `json:"mangaId"`
	AuthorID  string    `json:"authorId,omitempty"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthorRef identifies the comments of one author: by stable id, and by
// the username they were posted under when no id was recorded.
type AuthorRef struct {
	UserID         string
	LegacyUsername string
}

type PropagationStatus string

const (
	PropagationPending PropagationStatus = "pending"
	PropagationDone    PropagationStatus = "done"
)

// Propagation records a pending rewrite of an author's identity across
// their comments. It stays pending until the rewrite is confirmed.
type Propagation struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	OldUsername string            `json:"oldUsername"`
	NewUsername string            `json:"newUsername"`
	NewAvatar   string            `json:"newAvatar"`
	Status      PropagationStatus `json:"status"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"lastError,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type AdminAction string

const (
	ActionToggleVIP AdminAction = "toggle_vip"
	ActionToggleBan AdminAction = "toggle_ban"
	ActionDelete    AdminAction = "delete"
)

func (a AdminAction) Valid() bool {
	switch a {
	case ActionToggleVIP, ActionToggleBan, ActionDelete:
		return true
	}
	return false
}
