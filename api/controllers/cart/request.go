package cart

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}
