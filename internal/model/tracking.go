package model

import "time"

type TrackingEntry struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	FoodProduct FoodProduct `json:"food_product"`
	Quantity    int         `json:"quantity"`
	Timestamp   time.Time   `json:"timestamp"`
}
