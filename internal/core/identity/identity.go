package identity

// Snapshot is the display identity of a user as last resolved in this session.
// Snapshots are opportunistic copies of the users table: not authoritative, possibly stale.
type Snapshot struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	// Degraded marks a placeholder built after a failed lookup
	Degraded bool `json:"degraded,omitempty"`
}

// Fallback returns the placeholder rendered when a user's identity could not be looked up.
// The raw user id stands in for the display name so tree assembly is never blocked.
func Fallback(userID string) Snapshot {
	return Snapshot{
		UserID:      userID,
		DisplayName: userID,
		Degraded:    true,
	}
}
