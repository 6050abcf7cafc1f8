package models

type CreateEventRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type CreateShareRequest struct {
	// TTLSeconds overrides the default share lifetime when positive.
	TTLSeconds int `json:"ttlSeconds,omitempty" binding:"omitempty,min=60"`
}
