package handlers

// AttemptPairRequest identifies a uid/ip pair. The uid may be empty for
// attempts against unknown accounts.
type AttemptPairRequest struct {
	UID string `json:"uid" validate:"max=64"`
	IP  string `json:"ip" validate:"required,ip"`
}

// RecordAttemptRequest appends an attempt with a caller-supplied timestamp
type RecordAttemptRequest struct {
	UID         string `json:"uid" validate:"max=64"`
	IP          string `json:"ip" validate:"required,ip"`
	AttemptedAt int64  `json:"attempted_at" validate:"gte=0,lte=9007199254740991"`
}

// AddressRequest identifies a client address
type AddressRequest struct {
	IP string `json:"ip" validate:"required,ip"`
}

// CountResponse is returned by GET /v1/attempts/count
type CountResponse struct {
	Count int64 `json:"count"`
}

// LastAttemptResponse is returned by GET /v1/attempts/last. Zero means no
// attempt inside the window.
type LastAttemptResponse struct {
	AttemptedAt int64 `json:"attempted_at"`
}

// StatusResponse is returned by GET /v1/attempts/status
type StatusResponse struct {
	UID               string `json:"uid"`
	IP                string `json:"ip"`
	RecentCount       int64  `json:"recent_count"`
	LastAttemptAt     int64  `json:"last_attempt_at"`
	Throttled         bool   `json:"throttled"`
	RetryAfterSeconds int64  `json:"retry_after_seconds"`
}
