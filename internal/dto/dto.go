package dto

import (
	"bytes"
	"encoding/json"
)

// FlexString accepts a JSON string or number; storefronts send order numbers both ways.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

type SubmitOrderRequest struct {
	OrderNumber FlexString `json:"orderNumber"`
	Name        FlexString `json:"name"`
	Phone       FlexString `json:"phone"`
	WhatsApp    FlexString `json:"whatsapp"`
	Governorate FlexString `json:"governorate"`
	Address     FlexString `json:"address"`
	Plan        FlexString `json:"plan"`
	Quantity    FlexString `json:"quantity"`
	Total       FlexString `json:"total"`
}

type SubmitOrderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
