package push

// ============= Request DTOs =============

// WebhookPayload is the raw push payload as POSTed by the provider. Field
// names follow the provider wire format.
type WebhookPayload struct {
	Type          string `json:"type"`
	AckID         string `json:"ack_id,omitempty"`
	PostID        string `json:"post_id,omitempty"`
	ChannelID     string `json:"channel_id,omitempty"`
	ChannelName   string `json:"channel_name,omitempty"`
	RootID        string `json:"root_id,omitempty"`
	ServerID      string `json:"server_id,omitempty"`
	ConferenceID  string `json:"conference_id,omitempty"`
	ConferenceJWT string `json:"conference_jwt,omitempty"`
	IDLoaded      string `json:"id_loaded,omitempty"` // provider sends "true"/"false"
	Message       string `json:"message,omitempty"`
	SenderName    string `json:"sender_name,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

// OpenedRequest is the host-app callback for a tapped notification.
type OpenedRequest struct {
	ServerID  string `json:"server_id"`
	ChannelID string `json:"channel_id"`
	RootID    string `json:"root_id,omitempty"`
}

// ============= Response DTOs =============

// DispatchResponse reports the dispatch outcome to the webhook caller.
type DispatchResponse struct {
	Outcome      Outcome `json:"outcome"`
	PendingCount int     `json:"pending_count,omitempty"`
	AckAttempted bool    `json:"ack_attempted"`
	Forwarded    bool    `json:"forwarded"`
}
