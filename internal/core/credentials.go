package core

import "time"

// Credentials is the persisted OAuth token record. ExpiresAt is absolute
// wall-clock time in epoch seconds; it is recomputed as now + expires_in on
// every exchange or refresh.
type Credentials struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresAt    float64 `json:"expires_at"`
}

func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Fresh reports whether the access token is still usable at now, i.e. more
// than margin away from expiry.
func (c Credentials) Fresh(now time.Time, margin time.Duration) bool {
	return float64(now.Unix()) < c.ExpiresAt-margin.Seconds()
}
