package model

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProductInput is the payload for both create and update. Price and
// quantity are pointers so a missing field is distinguishable from zero.
type ProductInput struct {
	Name     string `json:"name"`
	Price    *int64 `json:"price"`
	Quantity *int64 `json:"quantity"`
}
