package tokens

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("token not found")

type Token struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Hidden    bool      `json:"hidden"`
	UpdatedAt time.Time `json:"updated_at"`
}
