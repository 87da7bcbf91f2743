package model

type TikTokUser struct {
	PhoneNumber string `json:"phone_number"`
}

type TikTokContext struct {
	User TikTokUser `json:"user"`
}

type TikTokContent struct {
	ContentType string  `json:"content_type"`
	ContentID   string  `json:"content_id"`
	ContentName string  `json:"content_name"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

type TikTokProperties struct {
	Contents []TikTokContent `json:"contents"`
	Currency string          `json:"currency"`
	Value    float64         `json:"value"`
}

type TikTokEvent struct {
	PixelCode  string           `json:"pixel_code"`
	Event      string           `json:"event"`
	EventID    string           `json:"event_id"`
	Timestamp  string           `json:"timestamp"`
	Context    TikTokContext    `json:"context"`
	Properties TikTokProperties `json:"properties"`
}

// TikTokResponse is the envelope the Events API wraps every answer in.
type TikTokResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
